package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/storage"
)

// Keys written by the onboarding flow.
const (
	KeyProfile = "userProfile"
	KeyPhone   = "userPhone"
)

// ErrNoIdentity is returned when nobody has logged in on this device.
var ErrNoIdentity = errors.New("no logged-in user")

// Load builds the process-wide identity from the store. The bare phone key
// wins over the phone embedded in the profile.
func Load(ctx context.Context, store storage.Store) (identity.Identity, error) {
	raw, err := store.Get(ctx, KeyProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return identity.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("read profile: %w", err)
	}

	var profile identity.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return identity.Identity{}, fmt.Errorf("decode profile: %w", err)
	}

	phone, err := store.Get(ctx, KeyPhone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return identity.Identity{}, fmt.Errorf("read phone: %w", err)
	}

	phone = strings.TrimSpace(phone)
	if phone == "" && strings.TrimSpace(profile.Phone) == "" {
		return identity.Identity{}, ErrNoIdentity
	}

	id, err := profile.Identity(phone)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return id, nil
}

// Save writes the profile blob and the bare phone the way onboarding does.
func Save(ctx context.Context, store storage.Store, profile identity.Profile, phone string) error {
	if profile.Phone == "" {
		profile.Phone = phone
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if _, err := profile.Identity(phone); err != nil {
		return err
	}

	blob, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := store.Set(ctx, KeyProfile, string(blob)); err != nil {
		return err
	}
	return store.Set(ctx, KeyPhone, phone)
}
