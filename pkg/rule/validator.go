// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
package rule

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建并注册 tag name 函数.
func initValidator() {
	inst = nil

	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(mapstructureName)

	_ = inst.RegisterValidation("filename", validFileName)
	_ = inst.RegisterValidation("uri_prefix", validURIPrefix)
}

// mapstructureName 错误信息中优先使用 mapstructure 标签作为字段名，与配置文件键名一致.
func mapstructureName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}

	return name
}

// validFileName 校验单个文件名：不能为空、. 或 ..，不能包含路径分隔符和 NUL.
func validFileName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, "/\\\x00")
}

// validURIPrefix 校验路由前缀：空串（根路径）或以 / 开头.
func validURIPrefix(fl validator.FieldLevel) bool {
	uri := fl.Field().String()

	return uri == "" || strings.HasPrefix(uri, "/")
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段路径（受 RegisterTagNameFunc 影响），值为可读错误信息.
type ValidationErrors map[string]string

// Error 实现 error 接口，按字段路径输出.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}

	return strings.Join(parts, "; ")
}

// Errors 把 validator 的原始错误转换为 ValidationErrors；非验证错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		// 去掉顶层结构体名，得到 upload.password 这样的路径
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}

		if fe.Param() != "" {
			out[ns] = fmt.Sprintf("failed on %q (%s), got %v", fe.Tag(), fe.Param(), fe.Value())
		} else {
			out[ns] = fmt.Sprintf("failed on %q, got %v", fe.Tag(), fe.Value())
		}
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
