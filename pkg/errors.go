// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error karşılaştırması string yerine sentinel değerlerle yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu error'ları %w ile sarıp döner, handler katmanı
// HTTP status code'larına map'ler (bkz. response.go).
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	// ErrUnavailable, store'a (SQLite/dosya sistemi) ulaşılamadığında döner.
	// Core katmanı ASLA kendi içinde retry yapmaz — hata caller'a çıkar,
	// retry/backoff politikası client'ındır.
	ErrUnavailable = errors.New("store unavailable")
	ErrInternal    = errors.New("internal error")
)
