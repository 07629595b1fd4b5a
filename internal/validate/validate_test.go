package validate

import (
	"strings"
	"testing"

	"github.com/me/clinic/pkg/model"
)

func TestCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   model.Credentials
		role    model.Role
		wantErr string
	}{
		{"patient ok", model.Credentials{Identifier: "p@example.com", Password: "pw"}, model.RolePatient, ""},
		{"admin username", model.Credentials{Identifier: "admin", Password: "admin123"}, model.RoleAdmin, ""},
		{"doctor needs email", model.Credentials{Identifier: "grey", Password: "pw"}, model.RoleDoctor, "email must be a valid email"},
		{"missing both", model.Credentials{}, model.RoleAdmin, "username is required; password is required"},
		{"missing email", model.Credentials{Password: "pw"}, model.RolePatient, "email is required"},
		{"bad role", model.Credentials{Identifier: "x", Password: "y"}, model.Role("nurse"), `invalid role "nurse"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Credentials(tt.creds, tt.role)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestStruct_PatientProfile(t *testing.T) {
	ok := model.PatientProfile{Name: "Pat Example", Email: "pat@example.com", Password: "secret1", Phone: "5551234567", Address: "1 Main St"}
	if err := Struct(ok); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	bad := ok
	bad.Phone = "555-1234"
	bad.Password = "abc"
	err := Struct(bad)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"phone must be exactly 10 characters", "password must be at least 6 characters"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestStruct_Prescription(t *testing.T) {
	p := model.Prescription{PatientName: "Pat Example", AppointmentID: 4, Medication: "Ibuprofen", Dosage: "200mg"}
	if err := Struct(p); err != nil {
		t.Fatalf("valid prescription rejected: %v", err)
	}
	p.Medication = ""
	if err := Struct(p); err == nil || !strings.Contains(err.Error(), "medication is required") {
		t.Errorf("err = %v", err)
	}
}
