package models

import "testing"

func TestTransactionKindValid(t *testing.T) {
	valid := []TransactionKind{
		KindPurchase, KindGeneration, KindRefund, KindAdminAdjustment, KindBonus,
	}
	for _, k := range valid {
		if !k.Valid() {
			t.Errorf("kind %q should be valid", k)
		}
	}

	invalid := []TransactionKind{"", "GENERATION", "chargeback", "gift"}
	for _, k := range invalid {
		if k.Valid() {
			t.Errorf("kind %q should not be valid", k)
		}
	}
}

func TestCreditTransactionIsDebit(t *testing.T) {
	if !(&CreditTransaction{Amount: -30}).IsDebit() {
		t.Error("negative amount should be a debit")
	}
	if (&CreditTransaction{Amount: 100}).IsDebit() {
		t.Error("positive amount should not be a debit")
	}
}

func TestCatalogModelFlags(t *testing.T) {
	m := &CatalogModel{Enabled: true, Visible: true}
	if !m.IsCallable() || !m.IsListed() {
		t.Error("enabled+visible entry should be callable and listed")
	}

	m.Visible = false
	if !m.IsCallable() {
		t.Error("hidden entry should still be callable")
	}
	if m.IsListed() {
		t.Error("hidden entry should not be listed")
	}

	m.Enabled = false
	if m.IsCallable() || m.IsListed() {
		t.Error("disabled entry should be neither callable nor listed")
	}
}
