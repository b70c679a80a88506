package database

import "errors"

var ErrCatalogClosed = errors.New("session catalog is closed")
