package models

import (
	"encoding/json"
	"testing"
)

func TestRoles(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleCoach, RoleSportsOfficer, RoleStudent} {
		if !r.Valid() {
			t.Fatalf("%s должна быть валидной", r)
		}
	}
	if Role("GUEST").Valid() {
		t.Fatal("неизвестная роль")
	}
	if RoleStudent.IsStaff() || !RoleSportsOfficer.IsStaff() {
		t.Fatal("staff — все, кроме студента")
	}
}

func TestLoginResponseUser(t *testing.T) {
	var resp LoginResponse
	if err := json.Unmarshal([]byte(`{"token":"t","id":7,"email":"s@tec.rjt.ac.lk","role":"STUDENT"}`), &resp); err != nil {
		t.Fatal(err)
	}
	if u := resp.User(); u.Role != RoleStudent || u.ID != 7 {
		t.Fatalf("получили %+v", u)
	}
}
