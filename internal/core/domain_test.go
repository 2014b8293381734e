package core

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{name: "known category", input: "Groceries", want: Groceries},
		{name: "underscore category", input: "Eating_Out", want: EatingOut},
		{name: "trims whitespace", input: "  Transport ", want: Transport},
		{name: "unknown category", input: "Rent", wantErr: true},
		{name: "wrong case", input: "groceries", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCategory) {
					t.Errorf("ParseCategory(%q) error = %v, want ErrInvalidCategory", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategories_FixedSetOfEight(t *testing.T) {
	cats := Categories()
	if len(cats) != 8 {
		t.Fatalf("Categories() returned %d categories, want 8", len(cats))
	}
	seen := make(map[Category]bool)
	for _, c := range cats {
		if seen[c] {
			t.Errorf("duplicate category %v", c)
		}
		seen[c] = true
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:      "user1",
		Date:        NewDate(2024, 3, 15),
		Category:    Groceries,
		Amount:      Money{Cents: 1250},
		Description: "weekly shop",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "empty user", mutate: func(tx *Transaction) { tx.UserID = " " }, wantErr: ErrEmptyUserID},
		{name: "zero date", mutate: func(tx *Transaction) { tx.Date = Date{} }, wantErr: ErrInvalidDate},
		{name: "unknown category", mutate: func(tx *Transaction) { tx.Category = "Rent" }, wantErr: ErrInvalidCategory},
		{name: "zero amount", mutate: func(tx *Transaction) { tx.Amount = Money{} }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, wantErr: ErrInvalidAmount},
		{name: "empty description", mutate: func(tx *Transaction) { tx.Description = "  " }, wantErr: ErrEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{name: "valid", profile: Profile{UserID: "u1", Age: 32, Dependents: 1, Occupation: "Self_Employed"}},
		{name: "unknown occupation is fine", profile: Profile{UserID: "u1", Age: 30, Occupation: "Software Developer"}},
		{name: "empty user", profile: Profile{Age: 30}, wantErr: true},
		{name: "negative age", profile: Profile{UserID: "u1", Age: -1}, wantErr: true},
		{name: "negative dependents", profile: Profile{UserID: "u1", Age: 30, Dependents: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate() unexpected error: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Errorf("ParseDate() round-trip = %q, want 2024-03-15", d.String())
	}

	if _, err := ParseDate("15/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate(non-ISO) error = %v, want ErrInvalidDate", err)
	}
}

func TestDateOf_TruncatesToDay(t *testing.T) {
	d := DateOf(NewDate(2024, 3, 15).Add(14*60*60*1e9 + 37*60*1e9))
	if d.String() != "2024-03-15" {
		t.Errorf("DateOf() = %q, want 2024-03-15", d.String())
	}
}
