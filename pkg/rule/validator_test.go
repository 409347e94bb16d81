package rule_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yeisme/docflow/pkg/rule"
)

type bulkForm struct {
	Action     string   `json:"action"     rule:"required,doc_bulk_action"`
	IDs        []string `json:"ids"        rule:"required,min=1,dive,required"`
	Visibility string   `json:"visibility" rule:"omitempty,doc_visibility"`
	Tab        string   `json:"tab"        rule:"omitempty,doc_tab"`
}

type listQuery struct {
	Tab   string `form:"tab"   rule:"omitempty,doc_tab"`
	Limit int    `form:"limit" rule:"omitempty,min=1,max=200"`
}

func TestEngineUsesRuleTag(t *testing.T) {
	if rule.Engine() == nil {
		t.Fatal("Engine() returned nil")
	}

	// binding 标签不参与校验
	type form struct {
		Name string `json:"name" binding:"required"`
	}

	if err := rule.ValidateStruct(form{}); err != nil {
		t.Errorf("binding tag should be ignored, got %v", err)
	}
}

func TestDomainRules(t *testing.T) {
	ok := bulkForm{Action: "review", IDs: []string{"a"}, Visibility: "public", Tab: "pending"}
	if err := rule.ValidateStruct(ok); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	errs := rule.Errors(rule.ValidateStruct(bulkForm{Action: "archive", Visibility: "everyone", Tab: "done"}))

	want := map[string]string{
		"action":     "must be one of: download review delete",
		"ids":        "is required",
		"visibility": "must be one of: internal contractors customers public",
		"tab":        "must be one of: all pending review",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], msg)
		}
	}
}

func TestErrorsUseFormNames(t *testing.T) {
	errs := rule.Errors(rule.ValidateStruct(listQuery{Tab: "archived", Limit: 500}))

	if errs["tab"] == "" || errs["limit"] != "must be at most 200" {
		t.Errorf("errs = %v", errs)
	}

	if rule.Errors(errors.New("plain")) != nil {
		t.Error("non-validation errors should map to nil")
	}

	if rule.Errors(nil) != nil {
		t.Error("nil should map to nil")
	}
}

func TestProjectIDRule(t *testing.T) {
	const tag = "required,max=64,excludesall=/"

	for id, valid := range map[string]bool{
		"site-7":                true,
		"":                      false,
		"a/b":                   false,
		strings.Repeat("p", 65): false,
	} {
		if err := rule.ValidateVar(id, tag); (err == nil) != valid {
			t.Errorf("ValidateVar(%q) = %v, valid=%v", id, err, valid)
		}
	}
}

func TestDocTypeCatalog(t *testing.T) {
	rule.SetDocumentTypes([]string{"Contract", " Invoice "})
	defer rule.SetDocumentTypes(nil)

	for _, typ := range []string{"contract", "INVOICE"} {
		if err := rule.ValidateVar(typ, rule.TagDocType); err != nil {
			t.Errorf("%s should be accepted: %v", typ, err)
		}
	}

	if err := rule.ValidateVar("Blueprint", rule.TagDocType); err == nil {
		t.Error("unknown type should be rejected")
	}

	rule.SetDocumentTypes(nil)

	if err := rule.ValidateVar("Blueprint", rule.TagDocType); err != nil {
		t.Errorf("empty catalog accepts any non-empty type: %v", err)
	}

	if err := rule.ValidateVar("  ", rule.TagDocType); err == nil {
		t.Error("blank type should be rejected")
	}
}
