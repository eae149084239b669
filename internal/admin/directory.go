// Package admin owns the allow-list of administrator identities and the
// OTP-gated sessions that every privileged mutation must pass through.
package admin

import (
	"context"
	"strings"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/models"
)

// DirectoryStore is the durable overlay of user-managed admin entries.
// Seed identities never reach it.
type DirectoryStore interface {
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	InsertAdmin(ctx context.Context, admin models.Admin) error
	DeleteAdmin(ctx context.Context, email string) error
}

// Directory merges a fixed seed set read-through under the mutable overlay.
// Emails are compared case-insensitively.
type Directory struct {
	seeds []models.Admin
	store DirectoryStore
}

func NewDirectory(seeds []models.Admin, store DirectoryStore) *Directory {
	normalized := make([]models.Admin, 0, len(seeds))
	for _, seed := range seeds {
		seed.Email = normalizeEmail(seed.Email)
		normalized = append(normalized, seed)
	}
	return &Directory{seeds: normalized, store: store}
}

// List returns seeds first, then overlay entries that do not shadow a seed.
func (d *Directory) List(ctx context.Context) ([]models.Admin, error) {
	stored, err := d.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Admin, 0, len(d.seeds)+len(stored))
	out = append(out, d.seeds...)
	for _, a := range stored {
		a.Email = normalizeEmail(a.Email)
		if d.isSeed(a.Email) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *Directory) Contains(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if d.isSeed(email) {
		return true, nil
	}
	stored, err := d.store.ListAdmins(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range stored {
		if normalizeEmail(a.Email) == email {
			return true, nil
		}
	}
	return false, nil
}

func (d *Directory) Add(ctx context.Context, email, name string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.ErrNotAllowed
	}
	if d.isSeed(email) {
		return apperr.ErrAlreadyExists
	}
	return d.store.InsertAdmin(ctx, models.Admin{Email: email, Name: name})
}

// Remove drops a user-managed entry. Seeds are not removable through this
// surface, and the directory must never reach zero administrators.
func (d *Directory) Remove(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if d.isSeed(email) {
		return apperr.ErrNotAllowed
	}

	admins, err := d.List(ctx)
	if err != nil {
		return err
	}
	present := false
	for _, a := range admins {
		if a.Email == email {
			present = true
			break
		}
	}
	if !present {
		return apperr.ErrNotFound
	}
	if len(admins) <= 1 {
		return apperr.ErrNotAllowed
	}

	return d.store.DeleteAdmin(ctx, email)
}

func (d *Directory) isSeed(email string) bool {
	for _, seed := range d.seeds {
		if seed.Email == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
