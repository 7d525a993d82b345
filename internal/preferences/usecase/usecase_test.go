package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/preferences"
	"github.com/dav-92/catfoodbot/internal/preferences/dto"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type fakePrefsRepo struct {
	byUser map[string]*model.UserPreferences
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{byUser: map[string]*model.UserPreferences{}}
}

func (r *fakePrefsRepo) FindByUserID(_ context.Context, userID string) (*model.UserPreferences, error) {
	p, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrefsRepo) Create(_ context.Context, prefs *model.UserPreferences) error {
	cp := *prefs
	r.byUser[prefs.UserID] = &cp
	return nil
}

func (r *fakePrefsRepo) Update(_ context.Context, prefs *model.UserPreferences) error {
	if _, ok := r.byUser[prefs.UserID]; !ok {
		return errors.New("not found")
	}
	cp := *prefs
	r.byUser[prefs.UserID] = &cp
	return nil
}

func (r *fakePrefsRepo) FindAllEnabled(_ context.Context) ([]model.UserPreferences, error) {
	var out []model.UserPreferences
	for _, p := range r.byUser {
		if p.AlertsEnabled {
			out = append(out, *p)
		}
	}
	return out, nil
}

func TestGetOrCreateDefaultsDisabled(t *testing.T) {
	uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())

	prefs, err := uc.GetOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if prefs.AlertsEnabled {
		t.Error("new user must start with alerts disabled")
	}
	if prefs.ID == "" {
		t.Error("created preferences without an id")
	}

	again, err := uc.GetOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != prefs.ID {
		t.Error("second call created a new row")
	}
}

func TestGetOrCreateRejectsEmptyUserID(t *testing.T) {
	uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())

	if _, err := uc.GetOrCreate(context.Background(), "  "); !errors.Is(err, preferences.ErrInvalidPreference) {
		t.Errorf("err = %v, want ErrInvalidPreference", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	negative := -1.5
	zero := 0.0
	positive := 5.50

	tests := []struct {
		name    string
		input   dto.UpdatePreferencesInput
		wantErr bool
	}{
		{"negative threshold", dto.UpdatePreferencesInput{UserID: "u1", MaxPricePerKg: &negative}, true},
		{"zero threshold", dto.UpdatePreferencesInput{UserID: "u1", MaxPricePerKg: &zero}, true},
		{"blank brand", dto.UpdatePreferencesInput{UserID: "u1", WatchedBrands: []string{"feringa", " "}}, true},
		{"comma in brand", dto.UpdatePreferencesInput{UserID: "u1", WatchedBrands: []string{"a,b"}}, true},
		{"valid", dto.UpdatePreferencesInput{UserID: "u1", MaxPricePerKg: &positive, WatchedBrands: []string{"feringa"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())
			_, err := uc.Update(context.Background(), &tt.input)
			if tt.wantErr {
				if !errors.Is(err, preferences.ErrInvalidPreference) {
					t.Errorf("err = %v, want ErrInvalidPreference", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdatePartialFieldsPreserved(t *testing.T) {
	uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())
	ctx := context.Background()

	threshold := 6.00
	enabled := true
	if _, err := uc.Update(ctx, &dto.UpdatePreferencesInput{
		UserID:        "u1",
		MaxPricePerKg: &threshold,
		WatchedBrands: []string{"feringa"},
		AlertsEnabled: &enabled,
	}); err != nil {
		t.Fatal(err)
	}

	// Only flip the toggle; threshold and brands must survive.
	disabled := false
	prefs, err := uc.Update(ctx, &dto.UpdatePreferencesInput{UserID: "u1", AlertsEnabled: &disabled})
	if err != nil {
		t.Fatal(err)
	}
	if prefs.AlertsEnabled {
		t.Error("toggle not applied")
	}
	if prefs.MaxPricePerKg == nil || *prefs.MaxPricePerKg != 6.00 {
		t.Errorf("threshold lost: %v", prefs.MaxPricePerKg)
	}
	if got := prefs.BrandsList(); len(got) != 1 || got[0] != "feringa" {
		t.Errorf("brands lost: %v", got)
	}
}

func TestAddRemoveBrand(t *testing.T) {
	uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())
	ctx := context.Background()

	prefs, err := uc.AddBrand(ctx, "u1", "Feringa")
	if err != nil {
		t.Fatal(err)
	}
	if got := prefs.BrandsList(); len(got) != 1 {
		t.Fatalf("brands = %v, want [Feringa]", got)
	}

	// Case-insensitive duplicate is a no-op.
	prefs, err = uc.AddBrand(ctx, "u1", "feringa")
	if err != nil {
		t.Fatal(err)
	}
	if got := prefs.BrandsList(); len(got) != 1 {
		t.Errorf("duplicate add grew the list: %v", got)
	}

	prefs, err = uc.RemoveBrand(ctx, "u1", "FERINGA")
	if err != nil {
		t.Fatal(err)
	}
	if got := prefs.BrandsList(); len(got) != 0 {
		t.Errorf("brands = %v, want empty", got)
	}
}

func TestAddBrandValidation(t *testing.T) {
	uc := NewPreferencesUseCase(newFakePrefsRepo(), nil, logger.NewNop())

	if _, err := uc.AddBrand(context.Background(), "u1", "   "); !errors.Is(err, preferences.ErrInvalidPreference) {
		t.Errorf("blank brand: err = %v, want ErrInvalidPreference", err)
	}
	if _, err := uc.AddBrand(context.Background(), "u1", "a,b"); !errors.Is(err, preferences.ErrInvalidPreference) {
		t.Errorf("comma brand: err = %v, want ErrInvalidPreference", err)
	}
}

func TestAllEnabledFiltersDisabledUsers(t *testing.T) {
	repo := newFakePrefsRepo()
	uc := NewPreferencesUseCase(repo, nil, logger.NewNop())
	ctx := context.Background()

	enabled := true
	if _, err := uc.Update(ctx, &dto.UpdatePreferencesInput{UserID: "on", AlertsEnabled: &enabled}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.GetOrCreate(ctx, "off"); err != nil {
		t.Fatal(err)
	}

	users, err := uc.AllEnabled(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].UserID != "on" {
		t.Errorf("enabled users = %+v, want only 'on'", users)
	}
}
