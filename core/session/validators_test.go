package session

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/virtualcampus/campus/core"
)

func validAccount() NewAccount {
	return NewAccount{
		Email:           "kim.jones@test.cd",
		Password:        "LePassw0rd!",
		PasswordConfirm: "LePassw0rd!",
		FirstName:       "Kim",
		LastName:        "Jones",
		Role:            RoleStudent,
	}
}

func Test_NewAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewAccount)
		wantFld string
		wantMsg string
	}{
		{name: "valid", mutate: func(na *NewAccount) {}},
		{
			name:    "bad email",
			mutate:  func(na *NewAccount) { na.Email = "nope" },
			wantFld: "email",
			wantMsg: "email must be a valid email address",
		},
		{
			name:    "missing role",
			mutate:  func(na *NewAccount) { na.Role = "" },
			wantFld: "role",
			wantMsg: "this field is required",
		},
		{
			name:    "unknown role",
			mutate:  func(na *NewAccount) { na.Role = "principal" },
			wantFld: "role",
			wantMsg: "role must be one of student, instructor or admin",
		},
		{
			name: "password mismatch",
			mutate: func(na *NewAccount) {
				na.PasswordConfirm = "S0mething!Else"
			},
			wantFld: "password_confirm",
			wantMsg: "password_confirm must be equal to Password",
		},
		{
			name: "password too short",
			mutate: func(na *NewAccount) {
				na.Password = "Sh0r!"
				na.PasswordConfirm = na.Password
			},
			wantFld: "password",
			wantMsg: pwdMinLenText,
		},
		{
			name: "password has whitespace",
			mutate: func(na *NewAccount) {
				na.Password = "Le Passw0rd!"
				na.PasswordConfirm = na.Password
			},
			wantFld: "password",
			wantMsg: pwdNoSpaceText,
		},
		{
			name: "password all numeric",
			mutate: func(na *NewAccount) {
				na.Password = "1234567890"
				na.PasswordConfirm = na.Password
			},
			wantFld: "password",
			wantMsg: pwdNotAllNumText,
		},
		{
			name: "password missing special char",
			mutate: func(na *NewAccount) {
				na.Password = "LePassw0rd"
				na.PasswordConfirm = na.Password
			},
			wantFld: "password",
			wantMsg: pwdComplexityText,
		},
		{
			name: "password similar to email",
			mutate: func(na *NewAccount) {
				na.Password = "Kim.jones@test.c1"
				na.PasswordConfirm = na.Password
			},
			wantFld: "password",
			wantMsg: pwdAttrSimText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := validAccount()
			tt.mutate(&acct)

			err := acct.Validate()
			if tt.wantFld == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected an error")
			}

			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Validate() error type = %T; want validator.ValidationErrors", err)
			}
			for _, vErr := range vErrs {
				if vErr.Field() == tt.wantFld {
					if got := vErr.Translate(core.Translator); got != tt.wantMsg {
						t.Errorf("message = %q; want %q", got, tt.wantMsg)
					}
					return
				}
			}
			t.Errorf("no error reported for field %q: %v", tt.wantFld, err)
		})
	}
}

func Test_NewAccount_Validate_cleansInput(t *testing.T) {
	acct := validAccount()
	acct.Email = "  Kim.Jones@Test.CD "
	acct.FirstName = " Kim "
	acct.Role = " Student "
	if err := acct.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if acct.Email != "kim.jones@test.cd" {
		t.Errorf("email not normalized: %q", acct.Email)
	}
	if acct.FirstName != "Kim" {
		t.Errorf("first name not trimmed: %q", acct.FirstName)
	}
	if acct.Role != RoleStudent {
		t.Errorf("role not normalized: %q", acct.Role)
	}
}
