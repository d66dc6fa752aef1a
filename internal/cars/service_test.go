package cars

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carjoy/internal/apperror"
	"carjoy/internal/models"
	"carjoy/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return NewService(NewMemoryRepository(), store, nil), store
}

func testInput() Input {
	return Input{
		Title:       "Model S",
		Description: "A fast electric car",
		Tags:        models.CarTags{CarType: "Sedan", Company: "Tesla", Dealer: "ACME"},
	}
}

func upload(name string) storage.Upload {
	return storage.Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(name)),
		Reader:      strings.NewReader(name),
	}
}

func uploads(n int) []storage.Upload {
	out := make([]storage.Upload, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, upload(fmt.Sprintf("f%d.jpg", i+1)))
	}
	return out
}

func storedFiles(t *testing.T, store *storage.LocalStore) []string {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, testInput(), uploads(2))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Model S", got.Title)
	assert.Equal(t, "A fast electric car", got.Description)
	assert.Equal(t, models.CarTags{CarType: "Sedan", Company: "Tesla", Dealer: "ACME"}, got.Tags.Data())
	assert.Equal(t, []string(created.Images), []string(got.Images))
	assert.Len(t, got.Images, 2)
}

func TestCreateRequiresImages(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), testInput(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.Validation(""))
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)

	in := testInput()
	in.Title = "   "
	in.Tags.Dealer = ""

	_, err := svc.Create(context.Background(), uuid.New(), in, uploads(1))
	require.Error(t, err)

	appErr := apperror.From(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	require.Len(t, appErr.Fields, 2)
	assert.Equal(t, "title", appErr.Fields[0].Field)
	assert.Equal(t, "tags.dealer", appErr.Fields[1].Field)

	assert.Empty(t, storedFiles(t, store), "validation failures must not persist files")
}

func TestCreateRejectsNonImageAndOversized(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)

	files := []storage.Upload{
		{Filename: "notes.txt", ContentType: "text/plain", Size: 4, Reader: strings.NewReader("text")},
		{Filename: "huge.jpg", ContentType: "image/jpeg", Size: 6 << 20, Reader: strings.NewReader("x")},
	}
	_, err := svc.Create(context.Background(), uuid.New(), testInput(), files)
	require.Error(t, err)

	appErr := apperror.From(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 2)
	assert.Empty(t, storedFiles(t, store))
}

func TestCreateTooManyImagesPersistsNothing(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, testInput(), uploads(11))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.TooManyImages(maxImages))

	cars, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, cars)
	assert.Empty(t, storedFiles(t, store))
}

func TestGetScopedToOwner(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ownerA, ownerB := uuid.New(), uuid.New()

	car, err := svc.Create(context.Background(), ownerA, testInput(), uploads(1))
	require.NoError(t, err)

	// a foreign owner and a missing id are indistinguishable
	_, err = svc.Get(context.Background(), ownerB, car.ID)
	assert.ErrorIs(t, err, apperror.NotFound(""))

	_, err = svc.Get(context.Background(), ownerA, uuid.New())
	assert.ErrorIs(t, err, apperror.NotFound(""))
}

func TestListScopedToOwner(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ownerA, ownerB := uuid.New(), uuid.New()

	_, err := svc.Create(context.Background(), ownerA, testInput(), uploads(1))
	require.NoError(t, err)

	listA, err := svc.List(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, "Model S", listA[0].Title)

	listB, err := svc.List(context.Background(), ownerB)
	require.NoError(t, err)
	assert.Empty(t, listB)
}

func TestUpdateReconciliation(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, testInput(), uploads(3))
	require.NoError(t, err)
	require.Len(t, created.Images, 3)
	a, b, c := created.Images[0], created.Images[1], created.Images[2]

	in := testInput()
	in.Title = "Model S Plaid"
	updated, err := svc.Update(context.Background(), owner, created.ID, in, []string{b}, []storage.Upload{upload("f4.jpg")})
	require.NoError(t, err)

	// retained-then-appended ordering
	require.Len(t, updated.Images, 3)
	assert.Equal(t, a, updated.Images[0])
	assert.Equal(t, c, updated.Images[1])
	d := updated.Images[2]
	assert.NotContains(t, []string{a, b, c}, d)

	assert.Equal(t, "Model S Plaid", updated.Title)

	files := storedFiles(t, store)
	assert.ElementsMatch(t, []string{a, c, d}, files)
	assert.NotContains(t, files, b, "removed image deleted from disk")
}

func TestUpdateIgnoresForeignFilenames(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	owner := uuid.New()

	victim, err := svc.Create(context.Background(), owner, testInput(), uploads(1))
	require.NoError(t, err)

	target, err := svc.Create(context.Background(), owner, testInput(), uploads(1))
	require.NoError(t, err)

	// removing a filename the car does not reference must not touch it
	_, err = svc.Update(context.Background(), owner, target.ID, testInput(), []string{victim.Images[0]}, nil)
	require.NoError(t, err)

	assert.Contains(t, storedFiles(t, store), victim.Images[0])
}

func TestUpdateTooManyImages(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, testInput(), uploads(10))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, created.ID, testInput(), nil, []storage.Upload{upload("extra.jpg")})
	assert.ErrorIs(t, err, apperror.TooManyImages(maxImages))
}

func TestUpdateCannotEmptyImageList(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, testInput(), uploads(1))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, created.ID, testInput(), []string{created.Images[0]}, nil)
	assert.ErrorIs(t, err, apperror.Validation(""))
}

func TestDelete(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, testInput(), uploads(2))
	require.NoError(t, err)

	// one backing file already gone; delete must still succeed
	require.NoError(t, os.Remove(filepath.Join(store.Dir(), created.Images[0])))

	require.NoError(t, svc.Delete(context.Background(), owner, created.ID))
	assert.Empty(t, storedFiles(t, store))

	// second delete finds nothing
	err = svc.Delete(context.Background(), owner, created.ID)
	assert.ErrorIs(t, err, apperror.NotFound(""))
}

func TestDeleteForeignOwnerForbidden(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ownerA, ownerB := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), ownerA, testInput(), uploads(1))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ownerB, created.ID)
	assert.ErrorIs(t, err, apperror.Forbidden(""))

	// nothing was removed
	_, err = svc.Get(context.Background(), ownerA, created.ID)
	require.NoError(t, err)
	assert.Len(t, storedFiles(t, store), 1)
}
