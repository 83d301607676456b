package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// 简单的 local@domain.tld 形式，与前端 type=email 的宽松程度一致。
// 空白按 IsFormSpace 的范围排除，RE2 的 \s 只覆盖 ASCII。
var contactEmailRegex = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// 字段到错误的映射，顺序由 ContactSubmission 的字段顺序决定
var fieldErrors = map[string]error{
	"Name":    ErrNameTooLong,
	"Email":   ErrInvalidEmail,
	"Message": ErrInvalidMessageLength,
}

// Validator 联系表单验证器
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建验证器并注册自定义规则
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("contact_email", validContactEmail)
	return &Validator{validate: v}
}

// Validate 按固定顺序验证已裁剪的提交，第一个失败的规则胜出：
// 必填字段 → 姓名长度 → 邮箱格式与长度 → 留言长度。
func (v *Validator) Validate(s ContactSubmission) error {
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return ErrMissingFields
	}

	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate submission: %w", err)
	}

	first := fieldErrs[0]
	if mapped, ok := fieldErrors[first.StructField()]; ok {
		return fmt.Errorf("%w (rule %s)", mapped, first.Tag())
	}
	return fmt.Errorf("validate submission: %w", err)
}

// ValidContactEmail 报告邮箱是否符合联系表单接受的形式
func ValidContactEmail(email string) bool {
	return len(email) > 0 && contactEmailRegex.MatchString(email)
}

func validContactEmail(fl validator.FieldLevel) bool {
	return ValidContactEmail(fl.Field().String())
}
