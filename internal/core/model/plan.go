// Package model turns a table descriptor and the schema's foreign key graph
// into a CFWheels model component. Planning and rendering are pure; nothing
// in this package touches the database or the filesystem.
package model

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/example/modelgen/internal/core/naming"
	"github.com/example/modelgen/internal/models"
)

var (
	// ErrNoColumns is returned for a table descriptor without columns.
	ErrNoColumns = errors.New("table has no columns")
	// ErrNoTableName is returned for a table descriptor without a name.
	ErrNoTableName = errors.New("table has no name")
)

// DefaultGenerator is the generator name written into the header.
const DefaultGenerator = "CFWheels Model Generator"

// AuditColumns names the audit columns of the schema. They never receive
// validations; the two timestamps are bound to createdAt and updatedAt.
type AuditColumns struct {
	CreatedAt string `yaml:"createdAt"`
	UpdatedAt string `yaml:"updatedAt"`
	CreatedBy string `yaml:"createdBy"`
	UpdatedBy string `yaml:"updatedBy"`
}

// DefaultAuditColumns returns the audit column names of the original schema.
func DefaultAuditColumns() AuditColumns {
	return AuditColumns{
		CreatedAt: "CreatedTimestamp",
		UpdatedAt: "LastUpdatedTimestamp",
		CreatedBy: "CreatedBy",
		UpdatedBy: "LastUpdatedBy",
	}
}

// Contains reports whether column is one of the audit columns.
func (a AuditColumns) Contains(column string) bool {
	for _, name := range []string{a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy} {
		if name != "" && strings.EqualFold(name, column) {
			return true
		}
	}
	return false
}

// Options configures planning. The zero value uses the defaults; an empty
// Audit means DefaultAuditColumns unless DisableAudit is set.
type Options struct {
	ValidationMap ValidationMap
	Audit         AuditColumns
	DisableAudit  bool // treat every column as ordinary, no timestamp bindings
	Now           func() time.Time
	Generator     string
}

func (o Options) withDefaults() Options {
	if o.ValidationMap == nil {
		o.ValidationMap = DefaultValidationMap()
	}
	switch {
	case o.DisableAudit:
		o.Audit = AuditColumns{}
	case o.Audit == (AuditColumns{}):
		o.Audit = DefaultAuditColumns()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Generator == "" {
		o.Generator = DefaultGenerator
	}
	return o
}

// Relation is a belongsTo or hasMany declaration.
type Relation struct {
	Name       string `json:"name"`
	ForeignKey string `json:"foreign_key"`
	Table      string `json:"table"`
}

// Validation is the rule set emitted for one column.
type Validation struct {
	Column    string       `json:"column"`
	Presence  bool         `json:"presence"`
	Type      SemanticType `json:"type,omitempty"`
	MaxLength *int         `json:"max_length,omitempty"`
}

// Args returns the CFWheels validates() arguments in emission order.
func (v Validation) Args() []string {
	var args []string
	if v.Presence {
		args = append(args, "presence=true")
	}
	if v.Type != "" {
		args = append(args, `validatesAs="`+string(v.Type)+`"`)
	}
	if v.MaxLength != nil {
		args = append(args, "maxLength="+strconv.Itoa(*v.MaxLength))
	}
	return args
}

// PropertyBinding maps a conventional property name onto a physical column.
type PropertyBinding struct {
	Name   string `json:"name"`
	Column string `json:"column"`
}

// PropertyDoc is one documentation line of the properties block.
type PropertyDoc struct {
	Column   string       `json:"column"`
	Type     SemanticType `json:"type"`
	Nullable bool         `json:"nullable"`
	Default  string       `json:"default,omitempty"`
}

// Definition is the ordered emission plan of one model.
type Definition struct {
	ModelName   string            `json:"model"`
	Table       string            `json:"table"`
	Generator   string            `json:"generator"`
	GeneratedAt string            `json:"generated_at"`
	PrimaryKey  []string          `json:"primary_key,omitempty"`
	BelongsTo   []Relation        `json:"belongs_to,omitempty"`
	HasMany     []Relation        `json:"has_many,omitempty"`
	Validations []Validation      `json:"validations,omitempty"`
	Timestamps  []PropertyBinding `json:"timestamps,omitempty"`
	Properties  []PropertyDoc     `json:"properties"`
}

// Plan builds the emission plan for table. graph may be nil for a schema
// without foreign keys.
func Plan(table *models.Table, graph *models.Graph, opts Options) (*Definition, error) {
	if table == nil || strings.TrimSpace(table.Name) == "" {
		return nil, ErrNoTableName
	}
	if len(table.Columns) == 0 {
		return nil, ErrNoColumns
	}
	opts = opts.withDefaults()

	def := &Definition{
		ModelName:   naming.ModelName(table.Name),
		Table:       table.Name,
		Generator:   opts.Generator,
		GeneratedAt: opts.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		PrimaryKey:  append([]string(nil), table.PrimaryKey...),
	}

	def.BelongsTo = belongsTo(table.Name, graph)
	def.HasMany = hasMany(table.Name, graph)
	def.Validations = validations(table, opts)
	def.Timestamps = timestamps(table, opts.Audit)
	def.Properties = properties(table, opts.ValidationMap)

	return def, nil
}

// belongsTo emits one relation per outgoing edge, duplicates included.
func belongsTo(table string, graph *models.Graph) []Relation {
	var out []Relation
	for _, e := range graph.Outgoing(table) {
		out = append(out, Relation{
			Name:       naming.ToCamelCase(naming.Singularize(e.ToTable)),
			ForeignKey: e.FromColumn,
			Table:      e.ToTable,
		})
	}
	return out
}

// hasMany emits one relation per distinct referencing table. The first edge
// from a child wins and self references are skipped.
func hasMany(table string, graph *models.Graph) []Relation {
	var out []Relation
	seen := make(map[string]bool)
	for _, e := range graph.Incoming(table) {
		if e.IsSelfReference() || seen[e.FromTable] {
			continue
		}
		seen[e.FromTable] = true
		out = append(out, Relation{
			Name:       naming.ToCamelCase(e.FromTable),
			ForeignKey: e.FromColumn,
			Table:      e.FromTable,
		})
	}
	return out
}

func validations(table *models.Table, opts Options) []Validation {
	var out []Validation
	for _, col := range table.Columns {
		if table.IsPrimaryKey(col.Name) || opts.Audit.Contains(col.Name) {
			continue
		}

		v := Validation{Column: col.Name, Presence: !col.Nullable}
		if st, ok := opts.ValidationMap.Lookup(col.SQLType); ok {
			v.Type = st
		}
		if IsBoundedString(col.SQLType) && col.MaxLength != nil && *col.MaxLength > 0 {
			n := *col.MaxLength
			v.MaxLength = &n
		}

		if v.Presence || v.Type != "" || v.MaxLength != nil {
			out = append(out, v)
		}
	}
	return out
}

// timestamps binds createdAt and updatedAt only when both columns exist.
func timestamps(table *models.Table, audit AuditColumns) []PropertyBinding {
	created := findColumn(table, audit.CreatedAt)
	updated := findColumn(table, audit.UpdatedAt)
	if created == "" || updated == "" {
		return nil
	}
	return []PropertyBinding{
		{Name: "createdAt", Column: created},
		{Name: "updatedAt", Column: updated},
	}
}

func findColumn(table *models.Table, name string) string {
	if name == "" {
		return ""
	}
	for _, col := range table.Columns {
		if strings.EqualFold(col.Name, name) {
			return col.Name
		}
	}
	return ""
}

func properties(table *models.Table, vm ValidationMap) []PropertyDoc {
	out := make([]PropertyDoc, 0, len(table.Columns))
	for _, col := range table.Columns {
		doc := PropertyDoc{Column: col.Name, Type: Any, Nullable: col.Nullable}
		if st, ok := vm.Lookup(col.SQLType); ok {
			doc.Type = st
		}
		if col.Default != nil {
			if d := models.NormalizeDefault(*col.Default); d != nil {
				doc.Default = *d
			}
		}
		out = append(out, doc)
	}
	return out
}
