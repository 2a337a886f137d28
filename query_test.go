package firesnapshot_test

import (
	"bytes"
	"log/slog"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/firesnapshot"
)

func serialize(t *testing.T, q firestore.Query) []byte {
	t.Helper()
	b, err := q.Serialize()
	require.NoError(t, err)
	return b
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

//nolint:funlen
func Test_QueryBuilder_MatchesHandWrittenQuery(t *testing.T) {
	client := newTestClient(t)
	members := firesnapshot.NewCollectionPath[member]("members")
	base := members.Query(client)
	tests := []struct {
		name  string
		build func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member]
		want  firestore.Query
	}{
		{
			name:  "no_clauses",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] { return b },
			want:  base,
		},
		{
			name: "equal",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.Where(memberFields.Name.Equal("Alice"))
			},
			want: base.Where("name", "==", "Alice"),
		},
		{
			name: "comparators",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.
					Where(memberFields.Age.LessThan(65)).
					Where(memberFields.Age.GreaterThan(17)).
					Where(memberFields.Age.LessThanOrEqual(64)).
					Where(memberFields.Age.GreaterThanOrEqual(18))
			},
			want: base.
				Where("age", "<", 65).
				Where("age", ">", 17).
				Where("age", "<=", 64).
				Where("age", ">=", 18),
		},
		{
			name: "array_contains",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.Where(memberFields.Tags.Contains("admin"))
			},
			want: base.Where("tags", "array-contains", "admin"),
		},
		{
			name: "nested_reference_field",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.OrderBy(memberFields.Team, firestore.Asc)
			},
			want: base.OrderBy("team.ref", firestore.Asc),
		},
		{
			name: "where_where_order_keeps_call_order",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.
					Where(memberFields.Name.Equal("Alice")).
					Where(memberFields.Tags.Contains("ops")).
					OrderBy(memberFields.Age, firestore.Desc)
			},
			want: base.
				Where("name", "==", "Alice").
				Where("tags", "array-contains", "ops").
				OrderBy("age", firestore.Desc),
		},
		{
			name: "filter_then_limit",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.Where(memberFields.Name.Equal("Alice")).Limit(10)
			},
			want: base.Where("name", "==", "Alice").Limit(10),
		},
		{
			name: "last_limit_wins",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.Limit(5).Limit(2)
			},
			want: base.Limit(2),
		},
		{
			name: "unknown_field_is_dropped",
			build: func(b *firesnapshot.QueryBuilder[member]) *firesnapshot.QueryBuilder[member] {
				return b.
					Where(memberFields.Name.Equal("Alice")).
					Where(memberFields.Nickname.Equal("Al")).
					OrderBy(memberFields.Nickname, firestore.Asc)
			},
			want: base.Where("name", "==", "Alice"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := firesnapshot.NewQueryBuilder[member](base, firesnapshot.WithLogger(quietLogger()))

			got := tc.build(b)

			assert.Same(t, b, got, "builder calls must chain on the same instance")
			assert.Equal(t, serialize(t, tc.want), serialize(t, got.Generate()))
		})
	}

}

func Test_QueryBuilder_ClauseOrderIsSignificant(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[member]("members").Query(client)

	ab := firesnapshot.NewQueryBuilder[member](base).
		Where(memberFields.Name.Equal("Alice")).
		Where(memberFields.Age.Equal(30)).
		Generate()
	ba := firesnapshot.NewQueryBuilder[member](base).
		Where(memberFields.Age.Equal(30)).
		Where(memberFields.Name.Equal("Alice")).
		Generate()

	assert.NotEqual(t, serialize(t, ab), serialize(t, ba))
}

func Test_QueryBuilder_ReferenceOperand(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[member]("members").Query(client)
	teamRef := client.Doc("teams/red")
	teamField := firesnapshot.NewField("Team", func(m *member) **firestore.DocumentRef { return &m.Team.Ref })

	got := firesnapshot.NewQueryBuilder[member](base).Where(teamField.Equal(teamRef)).Generate()

	assert.Equal(t, serialize(t, base.Where("team.ref", "==", teamRef)), serialize(t, got))
}

func Test_QueryBuilder_UnknownFieldDiagnostics(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[member]("members").Query(client)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	b := firesnapshot.NewQueryBuilder[member](base, firesnapshot.WithLogger(logger)).
		Where(memberFields.Nickname.Equal("Al"))

	assert.Equal(t, serialize(t, base), serialize(t, b.Generate()))
	assert.Contains(t, logs.String(), "Field name not found")
	assert.Contains(t, logs.String(), "field=Nickname")
	assert.ErrorIs(t, b.Err(), firesnapshot.ErrUnknownField)
	assert.Contains(t, b.Err().Error(), "Nickname")
}

func Test_QueryBuilder_ErrIsNilWhenEveryFieldResolves(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[member]("members").Query(client)

	b := firesnapshot.NewQueryBuilder[member](base).
		Where(memberFields.Name.Equal("Alice")).
		OrderBy(memberFields.Age, firestore.Asc)

	assert.NoError(t, b.Err())
}

func Test_QueryBuilder_GenerateIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[member]("members").Query(client)
	b := firesnapshot.NewQueryBuilder[member](base).
		Where(memberFields.Name.Equal("Alice")).
		OrderBy(memberFields.Age, firestore.Asc).
		Limit(3)

	first := serialize(t, b.Generate())
	second := serialize(t, b.Generate())

	assert.Equal(t, first, second)
}

func Test_QueryBuilder_PointerDataType(t *testing.T) {
	client := newTestClient(t)
	base := firesnapshot.NewCollectionPath[*member]("members").Query(client)
	name := firesnapshot.NewField("Name", func(m **member) *string { return &(*m).Name })
	nickname := firesnapshot.NewField("Nickname", func(m **member) *string { return &(*m).Name })

	b := firesnapshot.NewQueryBuilder[*member](base, firesnapshot.WithLogger(quietLogger())).
		Where(name.Equal("Alice")).
		Where(nickname.Equal("Al"))

	assert.Equal(t, serialize(t, base.Where("name", "==", "Alice")), serialize(t, b.Generate()))
	assert.ErrorIs(t, b.Err(), firesnapshot.ErrUnknownField)
}
