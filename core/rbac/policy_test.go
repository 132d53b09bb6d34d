package rbac

import "testing"

func TestAdminInheritsOperatorPermissions(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	for _, perm := range []string{PermSystemsView, PermSystemsSwitch, PermScenariosRun, PermIncidentsManage, PermLogsView} {
		if !p.Allowed("admin", perm) {
			t.Fatalf("admin denied %s", perm)
		}
		if !p.Allowed("atsep", perm) {
			t.Fatalf("atsep denied %s", perm)
		}
	}
}

func TestAdminOnlyPermissions(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	for _, perm := range []string{PermUsersManage, PermScenariosManage} {
		if !p.Allowed("admin", perm) {
			t.Fatalf("admin denied %s", perm)
		}
		if p.Allowed("atsep", perm) {
			t.Fatalf("atsep granted %s", perm)
		}
	}
}

func TestUnknownRoleDeniedEverything(t *testing.T) {
	p, _ := NewPolicy()
	if p.Allowed("guest", PermSystemsView) {
		t.Fatalf("unknown role granted access")
	}
}
