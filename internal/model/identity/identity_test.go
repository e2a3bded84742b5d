package identity

import (
	"errors"
	"testing"
)

func TestNormalizeRoleAcceptsBothVendorSpellings(t *testing.T) {
	for _, raw := range []string{"vendor", "vender", " Vender ", "VENDOR"} {
		role, err := NormalizeRole(raw)
		if err != nil {
			t.Fatalf("NormalizeRole(%q) err: %v", raw, err)
		}
		if role != RoleVendor {
			t.Fatalf("NormalizeRole(%q) = %q, want vendor", raw, role)
		}
	}
}

func TestNormalizeRoleRejectsUnknown(t *testing.T) {
	if _, err := NormalizeRole("buyer"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRoleCounterpart(t *testing.T) {
	if RoleFarmer.Counterpart() != RoleVendor {
		t.Fatal("farmer counterpart should be vendor")
	}
	if RoleVendor.Counterpart() != RoleFarmer {
		t.Fatal("vendor counterpart should be farmer")
	}
}

func TestProfileIdentityPrefersStoredPhone(t *testing.T) {
	profile := Profile{Name: "Ramesh", Phone: "9123456780", UserType: "vender"}

	id, err := profile.Identity("9876543210")
	if err != nil {
		t.Fatalf("Identity err: %v", err)
	}
	if id.Phone != "9876543210" {
		t.Fatalf("unexpected phone: %s", id.Phone)
	}
	if id.Role != RoleVendor {
		t.Fatalf("unexpected role: %s", id.Role)
	}
}

func TestProfileIdentityRejectsBadPhone(t *testing.T) {
	profile := Profile{Name: "Ramesh", UserType: "farmer"}

	if _, err := profile.Identity("12345"); err == nil {
		t.Fatal("expected validation error for short phone")
	}
}

func TestProfileValidate(t *testing.T) {
	good := Profile{Name: "Sita", Phone: "9876543210", UserType: "farmer", Pincode: "411001"}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate err: %v", err)
	}

	bad := Profile{Name: "Sita", UserType: "trader"}
	if err := bad.Validate(); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
