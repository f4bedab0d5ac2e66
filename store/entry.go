package store

// Top-level namespaces used by the record store.
const (
	NamespaceVersions = "versions"
	NamespaceCurrent  = "current"
)

// Entry is a key-value pair in the store namespace.
type Entry struct {
	Key   string
	Value []byte
}

// Key joins a namespace and a name into a store key.
func Key(namespace, name string) string {
	return namespace + "/" + name
}
