package condition

import (
	"fmt"
	"reflect"

	"github.com/viant/toolbox"
)

// Evaluate resolves the expression against the supplied variables. Selectors
// walk nested maps and exported struct fields; a missing path yields nil.
func (e *Expr) Evaluate(variables map[string]interface{}) (bool, error) {
	value, err := eval(e.root, variables)
	if err != nil {
		return false, err
	}
	return truthy(value), nil
}

func eval(n *node, variables map[string]interface{}) (interface{}, error) {
	switch n.kind {
	case kindLiteral:
		return n.value, nil
	case kindSelector:
		return resolve(n.selector, variables), nil
	case kindNot:
		value, err := eval(n.left, variables)
		if err != nil {
			return nil, err
		}
		return !truthy(value), nil
	case kindAnd:
		left, err := eval(n.left, variables)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return false, nil
		}
		right, err := eval(n.right, variables)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	case kindOr:
		left, err := eval(n.left, variables)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return true, nil
		}
		right, err := eval(n.right, variables)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	case kindCompare:
		left, err := eval(n.left, variables)
		if err != nil {
			return nil, err
		}
		right, err := eval(n.right, variables)
		if err != nil {
			return nil, err
		}
		return compare(n.operator, left, right)
	}
	return nil, fmt.Errorf("unsupported expression node: %v", n.kind)
}

func compare(operator string, left, right interface{}) (bool, error) {
	switch operator {
	case "==":
		return equals(left, right), nil
	case "!=":
		return !equals(left, right), nil
	}
	if left == nil || right == nil {
		return false, nil
	}
	lv, lErr := toolbox.ToFloat(left)
	rv, rErr := toolbox.ToFloat(right)
	if lErr != nil || rErr != nil {
		return false, fmt.Errorf("operator %v requires numeric operands: %v %v", operator, left, right)
	}
	switch operator {
	case ">":
		return lv > rv, nil
	case "<":
		return lv < rv, nil
	case ">=":
		return lv >= rv, nil
	case "<=":
		return lv <= rv, nil
	}
	return false, fmt.Errorf("unsupported operator: %v", operator)
}

func equals(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lv, err := toolbox.ToFloat(left); err == nil {
		if rv, rErr := toolbox.ToFloat(right); rErr == nil {
			return lv == rv
		}
	}
	return toolbox.AsString(left) == toolbox.AsString(right)
}

func truthy(value interface{}) bool {
	switch actual := value.(type) {
	case nil:
		return false
	case bool:
		return actual
	case string:
		return actual != ""
	}
	if v, err := toolbox.ToFloat(value); err == nil {
		return v != 0
	}
	return true
}

// resolve walks a selector path over nested maps and exported struct fields.
func resolve(path []string, variables map[string]interface{}) interface{} {
	var current interface{} = variables
	for _, segment := range path {
		if current == nil {
			return nil
		}
		switch holder := current.(type) {
		case map[string]interface{}:
			current = holder[segment]
			continue
		}
		value := reflect.ValueOf(current)
		for value.Kind() == reflect.Ptr {
			if value.IsNil() {
				return nil
			}
			value = value.Elem()
		}
		switch value.Kind() {
		case reflect.Map:
			item := value.MapIndex(reflect.ValueOf(segment))
			if !item.IsValid() {
				return nil
			}
			current = item.Interface()
		case reflect.Struct:
			field := value.FieldByName(exportedName(segment))
			if !field.IsValid() {
				return nil
			}
			current = field.Interface()
		default:
			return nil
		}
	}
	return current
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	head := name[0]
	if head >= 'a' && head <= 'z' {
		return string(head-'a'+'A') + name[1:]
	}
	return name
}
