package cas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewBytesHasher(t *testing.T) {
	h1 := NewBytesHasher([]byte("hello"))
	h2 := NewBytesHasher([]byte("hello"))
	h3 := NewBytesHasher([]byte("hello!"))

	require.Equal(t, h1.Hash(), h2.Hash())
	require.NotEqual(t, h1.Hash(), h3.Hash())
	require.Len(t, h1.Hash(), 64)
}

func TestDB_StoreAndRetrieve_RoundTrip(t *testing.T) {
	db := &DB{AbsRoot: t.TempDir(), Namespace: "legallens-v1"}
	h := NewBytesHasher([]byte("court_decisionsVögel,Zucht"))

	_, ok, err := db.Retrieve(h)
	require.NoError(t, err)
	require.False(t, ok)

	payload := []byte(`{"hits":{"total":{"value":0},"hits":[]}}`)
	require.NoError(t, db.Store(h, payload))

	got, ok, err := db.Retrieve(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, got)

	// Sharded layout, payload stored verbatim.
	hash := h.Hash()
	onDisk, err := os.ReadFile(filepath.Join(db.AbsRoot, "legallens-v1", hash[:2], hash[2:]))
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)
}

func TestDB_Store_IdenticalIsNoOp(t *testing.T) {
	db := &DB{AbsRoot: t.TempDir(), Namespace: "ns"}
	h := NewBytesHasher([]byte("x"))
	require.NoError(t, db.Store(h, []byte("same")))

	p, err := db.pathFor(h)
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	require.NoError(t, db.Store(h, []byte("same")))
	info, err := os.Stat(p)
	require.NoError(t, err)
	require.WithinDuration(t, old, info.ModTime(), time.Second)
}

func TestDB_Store_EvictsOldestOverCapacity(t *testing.T) {
	db := &DB{AbsRoot: t.TempDir(), Namespace: "ns", MaxBytes: 25}

	hashes := []Hasher{
		NewBytesHasher([]byte("a")),
		NewBytesHasher([]byte("b")),
		NewBytesHasher([]byte("c")),
	}
	base := time.Now().Add(-time.Hour)
	for i, h := range hashes {
		require.NoError(t, db.Store(h, []byte(strings.Repeat("x", 10))))
		p, err := db.pathFor(h)
		require.NoError(t, err)
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}

	// Third write pushed the namespace to 30 bytes; the oldest record went away.
	_, ok, err := db.Retrieve(hashes[0])
	require.NoError(t, err)
	require.False(t, ok)

	for _, h := range hashes[1:] {
		_, ok, err := db.Retrieve(h)
		require.NoError(t, err)
		require.True(t, ok)
	}

	u, err := db.Usage()
	require.NoError(t, err)
	require.Equal(t, Usage{Records: 2, Bytes: 20}, u)
}

func TestDB_Store_OversizedRecordIsKept(t *testing.T) {
	db := &DB{AbsRoot: t.TempDir(), Namespace: "ns", MaxBytes: 5}
	h := NewBytesHasher([]byte("big"))
	require.NoError(t, db.Store(h, []byte("0123456789")))

	_, ok, err := db.Retrieve(h)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDB_Usage_EmptyNamespace(t *testing.T) {
	db := &DB{AbsRoot: t.TempDir(), Namespace: "never-written"}
	u, err := db.Usage()
	require.NoError(t, err)
	require.Equal(t, Usage{}, u)
}

func TestDB_Validation(t *testing.T) {
	h := NewBytesHasher([]byte("x"))

	_, _, err := (&DB{Namespace: "ns"}).Retrieve(h)
	require.Error(t, err)

	err = (&DB{AbsRoot: t.TempDir(), Namespace: "a/b"}).Store(h, []byte("x"))
	require.Error(t, err)

	err = (&DB{AbsRoot: t.TempDir(), Namespace: "ns"}).Store(HashOf("ab"), []byte("x"))
	require.Error(t, err)

	err = (&DB{AbsRoot: t.TempDir(), Namespace: "ns"}).Store(nil, []byte("x"))
	require.Error(t, err)
}
