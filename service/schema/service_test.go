package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/extension"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/x"
)

type userReply struct {
	Text   string   `json:"text"`
	Rating int      `json:"rating,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

type appointment struct {
	When time.Time `json:"when"`
}

func newTestRegistry() *extension.Types {
	registry := extension.NewTypes()
	registry.Register(x.NewType(reflect.TypeOf(userReply{}), x.WithName("UserReply")))
	registry.Register(x.NewType(reflect.TypeOf(appointment{}), x.WithName("Appointment")))
	return registry
}

func TestService_Schema(t *testing.T) {
	service := New(newTestRegistry())
	document, err := service.Schema("UserReply")
	require.NoError(t, err)
	require.Equal(t, "object", document["type"])

	properties, ok := document["properties"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, properties, "text")
	require.Contains(t, properties, "rating")
	require.Contains(t, properties, "tags")

	text := properties["text"].(map[string]interface{})
	require.Equal(t, "string", text["type"])
	tags := properties["tags"].(map[string]interface{})
	require.Equal(t, "array", tags["type"])

	_, err = service.Schema("Unknown")
	require.Error(t, err)

	// Timestamps describe as strings rather than opaque structs.
	document, err = service.Schema("Appointment")
	require.NoError(t, err)
	properties, ok = document["properties"].(map[string]interface{})
	require.True(t, ok)
	when := properties["when"].(map[string]interface{})
	require.Equal(t, "string", when["type"])
	require.Equal(t, "date-time", when["format"])
}

func TestService_Validate(t *testing.T) {
	service := New(newTestRegistry())

	require.NoError(t, service.Validate("UserReply", map[string]interface{}{"text": "hi"}))
	require.NoError(t, service.Validate("UserReply", &userReply{Text: "hi", Rating: 5}))

	err := service.Validate("UserReply", map[string]interface{}{"text": 42})
	var mismatch *types.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, "UserReply", mismatch.Expected)

	err = service.Validate("UserReply", map[string]interface{}{"text": "hi", "rating": "high"})
	require.True(t, errors.As(err, &mismatch))

	require.NoError(t, service.Validate("Appointment", map[string]interface{}{"when": "2026-09-01T10:00:00Z"}))
	err = service.Validate("Appointment", map[string]interface{}{"when": 1234})
	require.True(t, errors.As(err, &mismatch))
}
