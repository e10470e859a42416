package formschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyMap = `{
	"type": "object",
	"items": {
		"kick": {"type": "number", "required": true, "min": 0, "max": 10, "is_filter": true},
		"breath": {"type": "select", "options": "Tốt:good,Khá:fair,Yếu:weak"},
		"note": {"type": "string", "text_type": "long", "options": "stale:x"},
		"passed": {"type": "boolean", "dependencies": [{"field": "breath", "value": "good,fair"}]}
	}
}`

const legacyArray = `{
	"type": "object",
	"items": [
		{"name": "kick", "type": "number", "required": true, "min": 0, "max": 10, "is_filter": true},
		{"name": "breath", "type": "select", "options": "Tốt:good,Khá:fair,Yếu:weak"},
		{"name": "note", "type": "string", "text_type": "long"},
		{"name": "passed", "type": "boolean", "dependencies": [{"field": "breath", "value": "good,fair"}]}
	]
}`

func TestOptionsRoundTrip(t *testing.T) {
	for _, s := range []string{
		"Tốt:good,Khá:fair",
		"Giờ: sáng:morning,Chiều:afternoon",
		":empty_label",
		"",
	} {
		enc, err := EncodeOptions(DecodeOptions(s))
		require.NoError(t, err)
		assert.Equal(t, s, enc)
	}

	opts := []Option{{Label: "Bơi ếch", Value: "frog"}, {Label: "Bơi sải", Value: "free"}}
	enc, err := EncodeOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, opts, DecodeOptions(enc))

	_, err = EncodeOptions([]Option{{Label: "a,b", Value: "x"}})
	assert.ErrorIs(t, err, ErrOptionDelimiter)
	_, err = EncodeOptions([]Option{{Label: "a", Value: "x:y"}})
	assert.ErrorIs(t, err, ErrOptionDelimiter)

	// пробелы по краям не пережили бы декодирование
	for _, o := range []Option{{Label: " Tốt", Value: "good"}, {Label: "Tốt", Value: "good "}} {
		_, err = EncodeOptions([]Option{o})
		assert.ErrorIs(t, err, ErrOptionDelimiter, "%q", o)
	}
	inner := []Option{{Label: "Giờ sáng", Value: "morning shift"}}
	enc, err = EncodeOptions(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, DecodeOptions(enc))
}

func TestDecodeOptions_LenientEntries(t *testing.T) {
	got := DecodeOptions(" a , b:2 ,, ")
	assert.Equal(t, []Option{{Label: "a", Value: "a"}, {Label: "b", Value: "2"}}, got)
}

func TestNormalize_LegacyShapesAgree(t *testing.T) {
	fromMap := Normalize([]byte(legacyMap))
	fromArr := Normalize([]byte(legacyArray))

	require.Equal(t, []string{"kick", "breath", "note", "passed"}, fromMap.Names())
	assert.Equal(t, fromMap, fromArr)

	note, ok := fromMap.Field("note")
	require.True(t, ok)
	assert.Nil(t, note.Select, "attributes of another type are dropped")
	assert.Equal(t, TextLong, note.String.TextKind)

	kick, _ := fromMap.Field("kick")
	assert.True(t, kick.Required)
	assert.True(t, kick.IsFilter)
	require.NotNil(t, kick.Number.Max)
	assert.Equal(t, 10.0, *kick.Number.Max)
}

func TestNormalize_Idempotent(t *testing.T) {
	padded := `{"type":"object","items":{" score ":{"type":"number"}," ":{"type":"boolean"}}}`
	for _, raw := range []string{legacyMap, legacyArray, padded, `{"type":"object"}`, `{"items": 5}`} {
		once := Normalize([]byte(raw))
		b, err := json.Marshal(once)
		require.NoError(t, err)
		twice := Normalize(b)
		assert.Equal(t, once, twice, raw)
		assert.Equal(t, once, NormalizeValue(once))
	}
}

func TestNormalize_TrimsLegacyKeys(t *testing.T) {
	s := Normalize([]byte(`{"type":"object","items":{" score ":{"type":"number"}," ":{"type":"boolean"},"score":{"type":"string"}}}`))
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "score", s.Fields[0].Name)
	assert.Equal(t, TypeNumber, s.Fields[0].Type)
}

func TestNormalize_Garbage(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"hello"`, `{"items": "x"}`, `{"items": {}}`, `{bad json`} {
		assert.Empty(t, Normalize([]byte(raw)).Fields, raw)
	}
}

func TestNormalize_DoubleEncoded(t *testing.T) {
	b, _ := json.Marshal(legacyArray)
	assert.Equal(t, Normalize([]byte(legacyArray)), Normalize(b))
}

func TestNormalize_SkipsDuplicatesAndNameless(t *testing.T) {
	s := Normalize([]byte(`{"items":[{"name":"a"},{"name":"a","type":"number"},{"type":"string"}]}`))
	require.Len(t, s.Fields, 1)
	assert.Equal(t, TypeString, s.Fields[0].Type)
}

func TestBuilder_AddField(t *testing.T) {
	b := NewBuilder(Schema{})
	require.NoError(t, b.AddField("  kick "))
	assert.True(t, b.Expanded("kick"))

	f, _ := b.Schema().Field("kick")
	assert.Equal(t, TypeString, f.Type)
	assert.Equal(t, TextShort, f.String.TextKind)
	assert.False(t, f.Required)
	assert.Empty(t, f.Dependencies)

	require.NoError(t, b.ChangeFieldType("kick", TypeNumber))
	before := b.Schema()
	assert.ErrorIs(t, b.AddField("kick"), ErrDuplicateField)
	assert.Equal(t, before, b.Schema(), "second add is a no-op")

	assert.ErrorIs(t, b.AddField("   "), ErrEmptyFieldName)
	assert.Equal(t, 1, b.Schema().Len())
}

func TestBuilder_ChangeFieldTypeDiscardsAttributes(t *testing.T) {
	b := NewBuilder(Schema{})
	require.NoError(t, b.AddField("style"))
	require.NoError(t, b.ChangeFieldType("style", TypeSelect))
	f, _ := b.Schema().Field("style")
	f.Required = true
	f.IsFilter = true
	f.Select.Options = DecodeOptions("Ếch:frog,Sải:free")
	require.NoError(t, b.UpdateField("style", f))

	require.NoError(t, b.ChangeFieldType("style", TypeNumber))
	got, _ := b.Schema().Field("style")
	assert.Nil(t, got.Select)
	assert.NotNil(t, got.Number)
	assert.True(t, got.Required)
	assert.True(t, got.IsFilter)

	assert.ErrorIs(t, b.ChangeFieldType("style", "date"), ErrUnknownFieldType)
	assert.ErrorIs(t, b.ChangeFieldType("nope", TypeBoolean), ErrFieldNotFound)
}

func TestBuilder_UpdateFieldDropsForeignAttributes(t *testing.T) {
	b := NewBuilder(Schema{})
	require.NoError(t, b.AddField("x"))
	def := NewField("renamed", TypeBoolean)
	def.String = &StringAttrs{TextKind: TextEmail}
	require.NoError(t, b.UpdateField("x", def))

	got, ok := b.Schema().Field("x")
	require.True(t, ok)
	assert.Equal(t, TypeBoolean, got.Type)
	assert.Nil(t, got.String)
}

func TestBuilder_Dependencies(t *testing.T) {
	b := NewBuilder(Schema{})
	for _, n := range []string{"level", "breath", "kick"} {
		require.NoError(t, b.AddField(n))
	}
	require.NoError(t, b.AddDependency("kick", "level", "basic,advanced"))
	assert.ErrorIs(t, b.AddDependency("kick", "level", "basic"), ErrDuplicateDependency)
	assert.ErrorIs(t, b.AddDependency("kick", "kick", "x"), ErrSelfDependency)
	assert.ErrorIs(t, b.AddDependency("kick", "", "x"), ErrInvalidDependency)
	assert.ErrorIs(t, b.AddDependency("kick", "breath", "  "), ErrInvalidDependency)
	require.NoError(t, b.AddDependency("kick", "breath", "good"))

	other := "level"
	assert.ErrorIs(t, b.UpdateDependency("kick", 1, DependencyPatch{Field: &other}), ErrDuplicateDependency)
	val := "advanced"
	require.NoError(t, b.UpdateDependency("kick", 0, DependencyPatch{Value: &val}))
	assert.ErrorIs(t, b.UpdateDependency("kick", 5, DependencyPatch{}), ErrDependencyIndex)

	f, _ := b.Schema().Field("kick")
	assert.Equal(t, []Dependency{{"level", "advanced"}, {"breath", "good"}}, f.Dependencies)

	require.NoError(t, b.RemoveDependency("kick", 0))
	assert.ErrorIs(t, b.RemoveDependency("kick", 3), ErrDependencyIndex)
	f, _ = b.Schema().Field("kick")
	assert.Equal(t, []Dependency{{"breath", "good"}}, f.Dependencies)
}

func TestBuilder_RemoveFieldCascades(t *testing.T) {
	b := NewBuilder(Schema{})
	require.NoError(t, b.AddField("level"))
	require.NoError(t, b.AddField("kick"))
	require.NoError(t, b.AddDependency("kick", "level", "basic"))

	b.RemoveField("level")
	b.RemoveField("missing")
	assert.False(t, b.Expanded("level"))

	s := b.Schema()
	assert.Equal(t, []string{"kick"}, s.Names())
	f, _ := s.Field("kick")
	assert.Empty(t, f.Dependencies)
	assert.Empty(t, Lint(s))
}

func TestBuilder_DoesNotAliasInput(t *testing.T) {
	src := Normalize([]byte(legacyArray))
	b := NewBuilder(src)
	b.RemoveField("breath")
	assert.Len(t, src.Fields, 4)
	f, _ := src.Field("passed")
	assert.Len(t, f.Dependencies, 1)
}

func TestLint(t *testing.T) {
	min, max := 5.0, 1.0
	s := Schema{Fields: []FieldDefinition{
		{Name: "a", Type: TypeNumber, Number: &NumberAttrs{Min: &min, Max: &max},
			Dependencies: []Dependency{{"ghost", "1"}, {"a", "2"}}},
		{Name: "b", Type: TypeSelect, Select: &SelectAttrs{}},
		{Name: "c", Type: TypeRelation, Relation: &RelationAttrs{EntityKind: "course", Cardinality: OneToOne}},
	}}
	codes := map[string]bool{}
	for _, it := range Lint(s) {
		codes[it.Code] = true
	}
	for _, c := range []string{IssueDependencyUnknown, IssueDependencySelf, IssueBoundsInverted, IssueSelectEmpty, IssueRelationUnknown} {
		assert.True(t, codes[c], c)
	}
	blocking := BlockingIssues(Lint(s))
	assert.Len(t, blocking, 2)
}

func TestSummary(t *testing.T) {
	min := 0.0
	num := FieldDefinition{Name: "n", Type: TypeNumber, Number: &NumberAttrs{Min: &min}}
	assert.Equal(t, "Giá trị [0, không giới hạn]", Summary(num))

	sel := NewField("s", TypeSelect)
	sel.Select.Options = DecodeOptions("A:a,B:b")
	assert.Equal(t, "2 lựa chọn", Summary(sel))
	assert.Equal(t, []string{"A (a)", "B (b)"}, OptionLines(sel))

	assert.Equal(t, BooleanSentence, Summary(NewField("b", TypeBoolean)))
	assert.Equal(t, "Liên kết tới media (1-1)", Summary(NewField("r", TypeRelation)))
	assert.Equal(t, "Kiểu nhập: Văn bản ngắn", Summary(NewField("t", TypeString)))
	assert.Equal(t, "0 tiêu chí", Describe(Schema{}))
}

func TestFieldDefinitionJSON(t *testing.T) {
	f := NewField("style", TypeSelect)
	f.Select.Options = DecodeOptions("Ếch:frog")
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"style","type":"select","required":false,"is_filter":false,"options":"Ếch:frog","dependencies":[]}`, string(b))

	var back FieldDefinition
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, f.Select, back.Select)
}

func TestFieldDefinitionJSON_UnknownType(t *testing.T) {
	var f FieldDefinition
	err := json.Unmarshal([]byte(`{"name":"x","type":"bogus"}`), &f)
	assert.ErrorIs(t, err, ErrUnknownFieldType)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":" Number "}`), &f))
	assert.Equal(t, TypeNumber, f.Type)

	// без типа поле остаётся строкой
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &f))
	assert.Equal(t, TypeString, f.Type)

	// нормализация сохранённых схем по-прежнему снисходительна
	s := Normalize([]byte(`{"fields":[{"name":"x","type":"bogus"}]}`))
	require.Len(t, s.Fields, 1)
	assert.Equal(t, TypeString, s.Fields[0].Type)
}
