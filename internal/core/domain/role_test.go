package domain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zentria/afe-api/pkg/logger"
)

func TestHasPermission_EveryKnownRoleAnswersEveryCapability(t *testing.T) {
	for _, role := range KnownRoles() {
		for _, cap := range AllCapabilities() {
			// Answers must be stable: the table is static, so two reads of the
			// same (role, capability) pair cannot diverge.
			first := HasPermission(role, cap)
			second := HasPermission(role, cap)
			if first != second {
				t.Fatalf("HasPermission(%q, %q) not stable: %v then %v", role, cap, first, second)
			}
		}
	}
}

func TestHasPermission_SuperadminHoldsEverything(t *testing.T) {
	for _, cap := range AllCapabilities() {
		if !HasPermission(RoleSuperadmin, cap) {
			t.Fatalf("superadmin should hold %q", cap)
		}
	}
}

func TestHasPermission_ViewerHoldsNothing(t *testing.T) {
	for _, cap := range AllCapabilities() {
		if HasPermission(RoleViewer, cap) {
			t.Fatalf("viewer should not hold %q", cap)
		}
	}
}

func TestHasPermission_AdminLacksOnlyGroupManagement(t *testing.T) {
	for _, cap := range AllCapabilities() {
		got := HasPermission(RoleAdmin, cap)
		want := cap != CapManageGroups
		if got != want {
			t.Fatalf("admin %q: got %v, want %v", cap, got, want)
		}
	}
}

func TestHasPermission_ResponsableMatrix(t *testing.T) {
	cases := map[Capability]bool{
		CapCreate:       false,
		CapEdit:         true,
		CapDelete:       false,
		CapApprove:      true,
		CapReject:       true,
		CapManageUsers:  false,
		CapManageGroups: false,
		CapManageMail:   false,
		CapViewPayments: false,
		CapExport:       true,
	}
	for cap, want := range cases {
		if got := HasPermission(RoleResponsable, cap); got != want {
			t.Fatalf("responsable %q: got %v, want %v", cap, got, want)
		}
	}
}

func TestHasPermission_ContadorMatrix(t *testing.T) {
	cases := map[Capability]bool{
		CapCreate:       false,
		CapEdit:         true,
		CapDelete:       false,
		CapApprove:      false,
		CapReject:       false,
		CapManageUsers:  false,
		CapManageGroups: false,
		CapManageMail:   false,
		CapViewPayments: true,
		CapExport:       true,
	}
	for cap, want := range cases {
		if got := HasPermission(RoleContador, cap); got != want {
			t.Fatalf("contador %q: got %v, want %v", cap, got, want)
		}
	}
}

func TestHasPermission_UnknownRoleFailsClosed(t *testing.T) {
	for _, role := range []string{"", "auditor", "SUPERADMIN", "admin "} {
		for _, cap := range AllCapabilities() {
			if HasPermission(role, cap) {
				t.Fatalf("unknown role %q should be denied %q", role, cap)
			}
		}
	}
}

func TestHasPermission_UnknownCapabilityDenied(t *testing.T) {
	for _, role := range KnownRoles() {
		if HasPermission(role, Capability("canTeleport")) {
			t.Fatalf("unknown capability should be denied for %q", role)
		}
	}
}

func TestHasPermission_DefectPathsLogAndDeny(t *testing.T) {
	logger.Reset()
	defer logger.Reset()
	var buf bytes.Buffer
	logger.Init(logger.Options{Level: "warn", Output: &buf})

	if HasPermission("auditor", CapApprove) {
		t.Fatalf("unknown role must be denied")
	}
	if !strings.Contains(buf.String(), "permission check for unknown role") {
		t.Fatalf("unknown role should be logged, got %q", buf.String())
	}

	buf.Reset()
	if HasPermission(RoleAdmin, Capability("canTeleport")) {
		t.Fatalf("unknown capability must be denied")
	}
	if !strings.Contains(buf.String(), "permission check for unknown capability") {
		t.Fatalf("unknown capability should be logged, got %q", buf.String())
	}
}

func TestIsKnownRole(t *testing.T) {
	for _, role := range KnownRoles() {
		if !IsKnownRole(role) {
			t.Fatalf("%q should be known", role)
		}
	}
	if IsKnownRole("auditor") {
		t.Fatalf("auditor should not be known")
	}
	if IsKnownRole("") {
		t.Fatalf("empty role should not be known")
	}
}

func TestLandingPath(t *testing.T) {
	if got := LandingPath(RoleSuperadmin); got != AdminLandingPath {
		t.Fatalf("superadmin landing: got %q", got)
	}
	for _, role := range []string{RoleAdmin, RoleResponsable, RoleContador, RoleViewer} {
		if got := LandingPath(role); got != OperationalLandingPath {
			t.Fatalf("%s landing: got %q", role, got)
		}
	}
}
