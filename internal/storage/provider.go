package storage

import "rulemark/internal/ports"

// Provider is the storage contract shared by the API, the worker, and the
// CLI output writer. It is an alias to ports.StorageProvider to keep
// call-sites simple.
type Provider = ports.StorageProvider
