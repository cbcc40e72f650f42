package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "arsiv"))
	require.NoError(t, err)
	return store, dir
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStorePutAndOpen(t *testing.T) {
	store, dir := newStore(t)
	csvPath := writeCSV(t, dir, "siparis.csv", "STOK KODU;MIKTAR\nKÜNEFE;3\n")

	rec, err := store.Put(csvPath, Record{
		Branch:        "KIZILAY",
		FrozenWritten: 4,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.RunID)
	assert.Equal(t, "siparis.csv", rec.SourceName)
	assert.False(t, rec.ArchivedAt.IsZero())

	r, got, err := store.Open("KIZILAY", rec.RunID)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 4, got.FrozenWritten)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "KÜNEFE")
}

func TestStoreListPerBranch(t *testing.T) {
	store, dir := newStore(t)
	csvPath := writeCSV(t, dir, "siparis.csv", "STOK KODU;MIKTAR\nEKLER;1\n")

	for i := 0; i < 3; i++ {
		_, err := store.Put(csvPath, Record{Branch: "KIZILAY"})
		require.NoError(t, err)
	}
	_, err := store.Put(csvPath, Record{Branch: "BORNOVA"})
	require.NoError(t, err)

	records, err := store.List("KIZILAY")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = store.List("URLA")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStoreSameFilenameNeverCollides(t *testing.T) {
	store, dir := newStore(t)
	csvPath := writeCSV(t, dir, "siparis.csv", "STOK KODU;MIKTAR\nEKLER;1\n")

	a, err := store.Put(csvPath, Record{Branch: "KIZILAY"})
	require.NoError(t, err)
	b, err := store.Put(csvPath, Record{Branch: "KIZILAY"})
	require.NoError(t, err)

	assert.NotEqual(t, a.StoredName, b.StoredName)
}

func TestStoreOpenUnknownRun(t *testing.T) {
	store, _ := newStore(t)
	_, _, err := store.Open("KIZILAY", uuid.New())
	assert.Error(t, err)
}
