package jsonapi_test

import (
	"reflect"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

type Tier struct {
	jsonapi.Entity

	Name string `jsonapi:"required"`
}

type Member struct {
	jsonapi.Entity

	Email  string   `jsonapi:"attr:email,required"`
	Name   string   `jsonapi:"attr:displayName"`
	Points int64    `jsonapi:""`
	Tags   []string `jsonapi:"attr:tags"`
	Labels []string `jsonapi:"attr:labels,preprocess:none"`
	Tier   *Tier    `jsonapi:"rel:tier"`

	Cached string
}

func (*Member) ResourceType() string { return "members" }

type Gauge struct {
	jsonapi.Entity

	Level uint8   `jsonapi:"attr:level"`
	Score int32   `jsonapi:"attr:score"`
	Ratio float32 `jsonapi:"attr:ratio"`
}

type Badge struct {
	label string
}

func (b *Badge) Copy() any {
	return &Badge{label: b.label + " (copy)"}
}

type Profile struct {
	jsonapi.Entity

	Badge *Badge `jsonapi:"attr:badge"`
}

type UnexportedTagged struct {
	jsonapi.Entity

	secret string `jsonapi:"attr:secret"` //nolint:unused // exercised by reflection
}

type BadOption struct {
	jsonapi.Entity

	Name string `jsonapi:"attr:name,sometimes"`
}

type DuplicateAttr struct {
	jsonapi.Entity

	First  string `jsonapi:"attr:name"`
	Second string `jsonapi:"attr:name"`
}

type BadRelationship struct {
	jsonapi.Entity

	Owner string `jsonapi:"rel:owner"`
}

type UnknownPreprocessor struct {
	jsonapi.Entity

	Name string `jsonapi:"attr:name,preprocess:uppercase"`
}

func newMember(t interface{ Helper() }, id int64, email string, points int64) *Member {
	t.Helper()

	m := &Member{Email: email, Points: points}
	if id > 0 {
		_ = m.AssignID(jsonapi.NewIntIdentifier(id))
	}

	return m
}

func reflectTypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
