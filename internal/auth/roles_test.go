package auth

import (
	"reflect"
	"testing"
)

func TestValidateRoles(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		wantErr bool
	}{
		{"empty set", []string{}, false},
		{"default only", []string{"default"}, false},
		{"default and cms", []string{"default", "cms"}, false},
		{"wildcard", []string{"*"}, false},
		{"unknown role", []string{"admin"}, true},
		{"mixed valid and invalid", []string{"default", "superuser"}, true},
		{"empty string role", []string{""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoles(tt.roles)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoles(%v) error = %v, wantErr %v", tt.roles, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeRoles(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{"nil input gets default", nil, []string{"default"}},
		{"empty input gets default", []string{}, []string{"default"}},
		{"default preserved", []string{"default"}, []string{"default"}},
		{"cms keeps default first", []string{"cms"}, []string{"default", "cms"}},
		{"duplicates removed", []string{"cms", "cms", "default"}, []string{"default", "cms"}},
		{"empty strings dropped", []string{"", "cms", ""}, []string{"default", "cms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRoles(tt.roles)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeRoles(%v) = %v, want %v", tt.roles, got, tt.want)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		keyRoles []string
		required Role
		want     bool
	}{
		{"exact match", []string{"default"}, RoleDefault, true},
		{"missing role", []string{"default"}, RoleCMS, false},
		{"wildcard satisfies anything", []string{"*"}, RoleCMS, true},
		{"wildcard among others", []string{"default", "*"}, RoleCMS, true},
		{"empty set", []string{}, RoleDefault, false},
		{"nil set", nil, RoleDefault, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRole(tt.keyRoles, tt.required); got != tt.want {
				t.Errorf("HasRole(%v, %q) = %v, want %v", tt.keyRoles, tt.required, got, tt.want)
			}
		})
	}
}

func TestDefaultRoles(t *testing.T) {
	got := DefaultRoles()
	if !reflect.DeepEqual(got, []string{"default"}) {
		t.Errorf("DefaultRoles() = %v, want [default]", got)
	}
}
