package storage

import "fmt"

const memoryStoreKind = "memory"

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string {
	return memoryStoreKind
}

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", memoryStoreKind:
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
