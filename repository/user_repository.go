// Package repository, veritabanı erişim katmanını barındırır.
//
// Her concern için bir interface + bir SQLite implementasyonu vardır.
// Service katmanı SADECE interface'leri görür — concrete struct'lara
// bağımlılık yoktur, test'te farklı implementasyon geçilebilir.
package repository

import (
	"context"

	"github.com/eakyurek/bostan/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
