package service

import "errors"

// ErrStoreRequired is returned by Start when no blob store was configured.
var ErrStoreRequired = errors.New("blob store is required")
