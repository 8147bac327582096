package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/luoxiv/enervision/pkg/rule"
)

// TestStruct 用于测试 ValidateStruct.
type TestStruct struct {
	Name       string  `rule:"required"`
	Confidence float64 `rule:"gte=0,lte=1"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	valid := TestStruct{Name: "电表读数", Confidence: 0.9}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	missingName := TestStruct{Confidence: 0.9}
	if err := rule.ValidateStruct(missingName); err == nil {
		t.Error("Expected error for missing name, got nil")
	}

	outOfRange := TestStruct{Name: "x", Confidence: 1.5}
	if err := rule.ValidateStruct(outOfRange); err == nil {
		t.Error("Expected error for confidence > 1, got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("medium", "oneof=low medium high"); err != nil {
		t.Errorf("Expected no error for valid severity, got %v", err)
	}

	if err := rule.ValidateVar("critical", "oneof=low medium high"); err == nil {
		t.Error("Expected error for invalid severity, got nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("hex16", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok || len(s) != 16 {
			return false
		}

		for _, r := range s {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return false
			}
		}

		return true
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	if err := rule.ValidateVar("deadbeefdeadbeef", "hex16"); err != nil {
		t.Errorf("Expected no error for valid hash, got %v", err)
	}

	if err := rule.ValidateVar("nope", "hex16"); err == nil {
		t.Error("Expected error for invalid hash, got nil")
	}
}

// TestErrors 测试错误展开为字段字典.
func TestErrors(t *testing.T) {
	if got := rule.Errors(nil); got != nil {
		t.Errorf("Expected nil for nil error, got %v", got)
	}

	err := rule.ValidateStruct(TestStruct{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := rule.Errors(err)
	if _, ok := fields["Name"]; !ok {
		t.Errorf("expected Name in error map, got %v", fields)
	}
}
