package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/modelgen/internal/models"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func fixedOptions() Options {
	return Options{
		Now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC) },
	}
}

func localities() *models.Table {
	return &models.Table{
		Name: "Localities",
		Columns: []models.Column{
			{Name: "Id", SQLType: "bigint"},
			{Name: "Name", SQLType: "nvarchar", MaxLength: intPtr(255)},
			{Name: "ClusterId", SQLType: "bigint"},
			{Name: "IsActive", SQLType: "bit", Default: strPtr("((1))")},
			{Name: "Notes", SQLType: "text", Nullable: true},
			{Name: "CreatedTimestamp", SQLType: "datetime"},
			{Name: "LastUpdatedTimestamp", SQLType: "datetime"},
		},
		PrimaryKey: []string{"Id"},
	}
}

const localitiesModel = `/**
 * Model: Locality
 * Table: Localities
 *
 * Generated with CFWheels Model Generator
 * Date: 2024-01-02T03:04:05.006Z
 */
component extends="Model" output="false" {

    /**
     * Component initialization
     */
    function init() {
        table("Localities");
        primaryKey("Id");

        // "Belongs to" relationships
        belongsTo("cluster", foreignKey="ClusterId");

        // "Has many" relationships
        hasMany("addresses", foreignKey="LocalityId");

        // Validations
        validates("Name", presence=true, validatesAs="string", maxLength=255);
        validates("ClusterId", presence=true, validatesAs="numeric");
        validates("IsActive", presence=true, validatesAs="boolean");
        validates("Notes", validatesAs="string");

        // Timestamp columns
        property(name="createdAt", column="CreatedTimestamp");
        property(name="updatedAt", column="LastUpdatedTimestamp");

        return this;
    }

    /**
     * Properties:
     * @property {numeric} Id
     * @property {string} Name
     * @property {numeric} ClusterId
     * @property {boolean} IsActive (default: ((1)))
     * @property {string} Notes (nullable)
     * @property {datetime} CreatedTimestamp
     * @property {datetime} LastUpdatedTimestamp
     */

}
`

func TestSynthesizeLocalities(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Localities", FromColumn: "ClusterId", ToTable: "Clusters", ToColumn: "Id"},
		{FromTable: "Addresses", FromColumn: "LocalityId", ToTable: "Localities", ToColumn: "Id"},
	})

	m, err := Synthesize(localities(), graph, fixedOptions())
	require.NoError(t, err)

	assert.Equal(t, "Locality", m.Name)
	assert.Equal(t, "Localities", m.Table)
	assert.Equal(t, "Locality.cfc", m.FileName())
	assert.Equal(t, localitiesModel, m.Content)
}

func TestRegionsAndClusters(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Clusters", FromColumn: "RegionId", ToTable: "Regions", ToColumn: "Id"},
	})
	regions := &models.Table{
		Name:       "Regions",
		Columns:    []models.Column{{Name: "Id", SQLType: "int"}},
		PrimaryKey: []string{"Id"},
	}
	clusters := &models.Table{
		Name: "Clusters",
		Columns: []models.Column{
			{Name: "Id", SQLType: "int"},
			{Name: "RegionId", SQLType: "int"},
		},
		PrimaryKey: []string{"Id"},
	}

	def, err := Plan(regions, graph, fixedOptions())
	require.NoError(t, err)
	assert.Empty(t, def.BelongsTo)
	require.Len(t, def.HasMany, 1)
	assert.Equal(t, Relation{Name: "clusters", ForeignKey: "RegionId", Table: "Clusters"}, def.HasMany[0])

	def, err = Plan(clusters, graph, fixedOptions())
	require.NoError(t, err)
	assert.Empty(t, def.HasMany)
	require.Len(t, def.BelongsTo, 1)
	assert.Equal(t, Relation{Name: "region", ForeignKey: "RegionId", Table: "Regions"}, def.BelongsTo[0])

	m, err := Synthesize(clusters, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(m.Content, "belongsTo("))
	assert.Contains(t, m.Content, `belongsTo("region", foreignKey="RegionId");`)
	assert.NotContains(t, m.Content, "hasMany(")
}

func TestHasManyDeduplicatesByChildTable(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Transfers", FromColumn: "FromAccountId", ToTable: "Accounts", ToColumn: "Id"},
		{FromTable: "Transfers", FromColumn: "ToAccountId", ToTable: "Accounts", ToColumn: "Id"},
		{FromTable: "Statements", FromColumn: "AccountId", ToTable: "Accounts", ToColumn: "Id"},
	})
	accounts := &models.Table{Name: "Accounts", Columns: []models.Column{{Name: "Id", SQLType: "int"}}, PrimaryKey: []string{"Id"}}

	def, err := Plan(accounts, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, []Relation{
		{Name: "transfers", ForeignKey: "FromAccountId", Table: "Transfers"},
		{Name: "statements", ForeignKey: "AccountId", Table: "Statements"},
	}, def.HasMany)

	// Belongs-to keeps both edges to the same parent.
	transfers := &models.Table{Name: "Transfers", Columns: []models.Column{
		{Name: "Id", SQLType: "int"},
		{Name: "FromAccountId", SQLType: "int"},
		{Name: "ToAccountId", SQLType: "int"},
	}}
	def, err = Plan(transfers, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, []Relation{
		{Name: "account", ForeignKey: "FromAccountId", Table: "Accounts"},
		{Name: "account", ForeignKey: "ToAccountId", Table: "Accounts"},
	}, def.BelongsTo)
}

func TestSelfReferenceSuppressedFromHasMany(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Managers", FromColumn: "ReportsToId", ToTable: "Managers", ToColumn: "Id"},
	})
	managers := &models.Table{Name: "Managers", Columns: []models.Column{
		{Name: "Id", SQLType: "int"},
		{Name: "ReportsToId", SQLType: "int", Nullable: true},
	}, PrimaryKey: []string{"Id"}}

	def, err := Plan(managers, graph, fixedOptions())
	require.NoError(t, err)
	assert.Empty(t, def.HasMany)
	assert.Equal(t, []Relation{{Name: "manager", ForeignKey: "ReportsToId", Table: "Managers"}}, def.BelongsTo)
}

func TestRelationNamesFollowLiteralSuffixRules(t *testing.T) {
	// "es" is stripped whole, so Employees singularizes to "Employe".
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Employees", FromColumn: "ManagerId", ToTable: "Employees", ToColumn: "Id"},
	})
	employees := &models.Table{Name: "Employees", Columns: []models.Column{
		{Name: "Id", SQLType: "int"},
		{Name: "ManagerId", SQLType: "int", Nullable: true},
	}, PrimaryKey: []string{"Id"}}

	def, err := Plan(employees, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "Employe", def.ModelName)
	assert.Equal(t, []Relation{{Name: "employe", ForeignKey: "ManagerId", Table: "Employees"}}, def.BelongsTo)
}

func TestSnakeCaseTableNames(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "id"},
	})
	items := &models.Table{Name: "order_items", Columns: []models.Column{
		{Name: "id", SQLType: "integer"},
		{Name: "order_id", SQLType: "integer"},
	}, PrimaryKey: []string{"id"}}
	orders := &models.Table{Name: "orders", Columns: []models.Column{
		{Name: "id", SQLType: "integer"},
	}, PrimaryKey: []string{"id"}}

	def, err := Plan(items, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "Orderitem", def.ModelName)
	assert.Equal(t, []Relation{{Name: "order", ForeignKey: "order_id", Table: "orders"}}, def.BelongsTo)

	def, err = Plan(orders, graph, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "Order", def.ModelName)
	assert.Equal(t, []Relation{{Name: "orderitems", ForeignKey: "order_id", Table: "order_items"}}, def.HasMany)
}

func TestColumnValidations(t *testing.T) {
	tests := []struct {
		name   string
		column models.Column
		want   []Validation
		args   string
	}{
		{
			name:   "bounded varchar",
			column: models.Column{Name: "Code", SQLType: "varchar(50)", MaxLength: intPtr(50)},
			want:   []Validation{{Column: "Code", Presence: true, Type: String, MaxLength: intPtr(50)}},
			args:   `presence=true, validatesAs="string", maxLength=50`,
		},
		{
			name:   "nullable bit",
			column: models.Column{Name: "Flag", SQLType: "bit", Nullable: true},
			want:   []Validation{{Column: "Flag", Type: Boolean}},
			args:   `validatesAs="boolean"`,
		},
		{
			name:   "nvarchar max is unbounded",
			column: models.Column{Name: "Body", SQLType: "nvarchar", MaxLength: nil},
			want:   []Validation{{Column: "Body", Presence: true, Type: String}},
			args:   `presence=true, validatesAs="string"`,
		},
		{
			name:   "sentinel length ignored",
			column: models.Column{Name: "Body", SQLType: "NVARCHAR", MaxLength: intPtr(-1)},
			want:   []Validation{{Column: "Body", Presence: true, Type: String}},
			args:   `presence=true, validatesAs="string"`,
		},
		{
			name:   "length on non string type ignored",
			column: models.Column{Name: "Amount", SQLType: "decimal(10,2)", MaxLength: intPtr(10), Nullable: true},
			want:   []Validation{{Column: "Amount", Type: Numeric}},
			args:   `validatesAs="numeric"`,
		},
		{
			name:   "unknown type not nullable",
			column: models.Column{Name: "Shape", SQLType: "geography"},
			want:   []Validation{{Column: "Shape", Presence: true}},
			args:   `presence=true`,
		},
		{
			name:   "unknown type nullable emits nothing",
			column: models.Column{Name: "Shape", SQLType: "geography", Nullable: true},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &models.Table{
				Name:       "Things",
				Columns:    []models.Column{{Name: "Id", SQLType: "int"}, tt.column},
				PrimaryKey: []string{"Id"},
			}
			def, err := Plan(table, nil, fixedOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Validations)
			if tt.want != nil {
				assert.Equal(t, tt.args, strings.Join(def.Validations[0].Args(), ", "))
			}
		})
	}
}

func TestAuditAndKeyColumnsNeverValidated(t *testing.T) {
	table := &models.Table{
		Name: "Notes",
		Columns: []models.Column{
			{Name: "Id", SQLType: "int"},
			{Name: "CreatedBy", SQLType: "nvarchar", MaxLength: intPtr(100)},
			{Name: "LastUpdatedBy", SQLType: "nvarchar", MaxLength: intPtr(100)},
			{Name: "CreatedTimestamp", SQLType: "datetime"},
		},
		PrimaryKey: []string{"Id"},
	}

	def, err := Plan(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.Empty(t, def.Validations)
	// Only one of the two timestamps exists, so no shortcut.
	assert.Empty(t, def.Timestamps)
	assert.Len(t, def.Properties, 4)

	m, err := Synthesize(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.NotContains(t, m.Content, "// Validations")
	assert.NotContains(t, m.Content, "// Timestamp columns")
}

func TestCustomAuditColumns(t *testing.T) {
	table := &models.Table{
		Name: "posts",
		Columns: []models.Column{
			{Name: "id", SQLType: "integer"},
			{Name: "created_at", SQLType: "timestamp"},
			{Name: "updated_at", SQLType: "timestamp"},
		},
		PrimaryKey: []string{"id"},
	}
	opts := fixedOptions()
	opts.Audit = AuditColumns{CreatedAt: "created_at", UpdatedAt: "updated_at"}

	def, err := Plan(table, nil, opts)
	require.NoError(t, err)
	assert.Empty(t, def.Validations)
	assert.Equal(t, []PropertyBinding{
		{Name: "createdAt", Column: "created_at"},
		{Name: "updatedAt", Column: "updated_at"},
	}, def.Timestamps)
	assert.Equal(t, "Post", def.ModelName)
}

func TestDisableAudit(t *testing.T) {
	table := &models.Table{
		Name: "Notes",
		Columns: []models.Column{
			{Name: "Id", SQLType: "int"},
			{Name: "CreatedTimestamp", SQLType: "datetime2"},
			{Name: "LastUpdatedTimestamp", SQLType: "datetime2"},
			{Name: "CreatedBy", SQLType: "int", Nullable: true},
		},
		PrimaryKey: []string{"Id"},
	}

	tests := []struct {
		name           string
		opts           Options
		wantTimestamps bool
		wantValidated  []string
	}{
		{"blank audit names use defaults", Options{}, true, nil},
		{"disabled", Options{DisableAudit: true}, false, []string{"CreatedTimestamp", "LastUpdatedTimestamp", "CreatedBy"}},
		{"disabled wins over names", Options{DisableAudit: true, Audit: DefaultAuditColumns()}, false, []string{"CreatedTimestamp", "LastUpdatedTimestamp", "CreatedBy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Now = fixedOptions().Now

			def, err := Plan(table, nil, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTimestamps, len(def.Timestamps) == 2)

			var validated []string
			for _, v := range def.Validations {
				validated = append(validated, v.Column)
			}
			assert.Equal(t, tt.wantValidated, validated)
		})
	}
}

func TestCompositePrimaryKey(t *testing.T) {
	table := &models.Table{
		Name: "ActivityStudyItems",
		Columns: []models.Column{
			{Name: "ActivityId", SQLType: "bigint"},
			{Name: "StudyItemId", SQLType: "bigint"},
			{Name: "Position", SQLType: "int"},
		},
		PrimaryKey: []string{"ActivityId", "StudyItemId"},
	}

	m, err := Synthesize(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.Contains(t, m.Content, `primaryKey("ActivityId", "StudyItemId");`)
	assert.Equal(t, 1, strings.Count(m.Content, "validates("))
	assert.Contains(t, m.Content, `validates("Position", presence=true, validatesAs="numeric");`)
}

func TestNoPrimaryKeyOmitsDeclaration(t *testing.T) {
	table := &models.Table{Name: "Logs", Columns: []models.Column{{Name: "Message", SQLType: "text", Nullable: true}}}

	m, err := Synthesize(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.NotContains(t, m.Content, "primaryKey(")
	assert.Contains(t, m.Content, `table("Logs");`)
}

func TestPropertyDocs(t *testing.T) {
	table := &models.Table{
		Name: "Items",
		Columns: []models.Column{
			{Name: "Id", SQLType: "uniqueidentifier", Default: strPtr("(newid())")},
			{Name: "Shape", SQLType: "geography", Nullable: true},
			{Name: "Note", SQLType: "nvarchar(20)", Nullable: true, Default: strPtr("NULL")},
		},
		PrimaryKey: []string{"Id"},
	}

	def, err := Plan(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, []PropertyDoc{
		{Column: "Id", Type: GUID, Default: "(newid())"},
		{Column: "Shape", Type: Any, Nullable: true},
		{Column: "Note", Type: String, Nullable: true},
	}, def.Properties)

	m, err := Synthesize(table, nil, fixedOptions())
	require.NoError(t, err)
	assert.Contains(t, m.Content, "     * @property {guid} Id (default: (newid()))\n")
	assert.Contains(t, m.Content, "     * @property {any} Shape (nullable)\n")
	assert.Contains(t, m.Content, "     * @property {string} Note (nullable)\n")
}

func TestMalformedInput(t *testing.T) {
	_, err := Synthesize(&models.Table{Name: "Empty"}, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoColumns))

	_, err = Plan(&models.Table{Columns: []models.Column{{Name: "Id"}}}, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoTableName))

	_, err = Plan(nil, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoTableName))
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	graph := models.NewGraph([]models.ForeignKey{
		{FromTable: "Localities", FromColumn: "ClusterId", ToTable: "Clusters", ToColumn: "Id"},
	})
	calls := 0
	opts := Options{Now: func() time.Time {
		calls++
		return time.Date(2024, 1, 1, 0, 0, calls, 0, time.UTC)
	}}

	first, err := Synthesize(localities(), graph, opts)
	require.NoError(t, err)
	second, err := Synthesize(localities(), graph, opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.Content, second.Content)
	assert.Equal(t, StripTimestamp(first.Content), StripTimestamp(second.Content))
	assert.NotContains(t, StripTimestamp(first.Content), "Date:")
}

func TestValidationMapOverride(t *testing.T) {
	table := &models.Table{Name: "Shapes", Columns: []models.Column{
		{Name: "Area", SQLType: "geography"},
		{Name: "Code", SQLType: "char(2)", MaxLength: intPtr(2)},
	}}
	opts := fixedOptions()
	opts.ValidationMap = DefaultValidationMap().With(map[string]SemanticType{"GEOGRAPHY": Binary})

	def, err := Plan(table, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, Binary, def.Validations[0].Type)
	assert.Equal(t, Binary, def.Properties[0].Type)
	assert.Equal(t, intPtr(2), def.Validations[1].MaxLength)
}
