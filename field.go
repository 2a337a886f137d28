package firesnapshot

// FieldKey identifies one field of a data type independently of its stored name.
// By convention it is the Go field name.
type FieldKey string

// FieldNameReferable is implemented by data types usable with QueryBuilder.
// FieldName must work on the zero value, so implement it on a value receiver.
// When D is a pointer type, FieldName is called on a pointer to a zero value.
type FieldNameReferable interface {
	FieldName(key FieldKey) (string, bool)
}

// FieldNames is a static table from field keys to stored field names.
type FieldNames map[FieldKey]string

// Lookup returns the stored name for key.
func (n FieldNames) Lookup(key FieldKey) (string, bool) {
	name, ok := n[key]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Operator is a Firestore filter comparator.
type Operator string

const (
	OpEqual              Operator = "=="
	OpLessThan           Operator = "<"
	OpGreaterThan        Operator = ">"
	OpLessThanOrEqual    Operator = "<="
	OpGreaterThanOrEqual Operator = ">="
	OpArrayContains      Operator = "array-contains"
)

// Accessor is a field accessor declared on D.
type Accessor[D any] interface {
	Key() FieldKey
	owner(*D)
}

// Filter is a single comparison on a field of D.
type Filter[D any] struct {
	key   FieldKey
	op    Operator
	value interface{}
}

// Key returns the field the filter applies to.
func (f Filter[D]) Key() FieldKey { return f.key }

// Operator returns the comparator.
func (f Filter[D]) Operator() Operator { return f.op }

// Value returns the operand.
func (f Filter[D]) Value() interface{} { return f.value }

// Field reads and writes a field of type V on D.
type Field[D, V any] struct {
	key FieldKey
	ptr func(*D) *V
}

// NewField declares a field accessor. ptr must return the address of the field inside d.
func NewField[D, V any](key FieldKey, ptr func(d *D) *V) Field[D, V] {
	return Field[D, V]{key: key, ptr: ptr}
}

func (f Field[D, V]) Key() FieldKey { return f.key }

func (Field[D, V]) owner(*D) {}

// Get returns the field's value in d.
func (f Field[D, V]) Get(d *D) V {
	return *f.ptr(d)
}

// Set stores v in d.
func (f Field[D, V]) Set(d *D, v V) {
	*f.ptr(d) = v
}

func (f Field[D, V]) Equal(v V) Filter[D] {
	return Filter[D]{key: f.key, op: OpEqual, value: v}
}

func (f Field[D, V]) LessThan(v V) Filter[D] {
	return Filter[D]{key: f.key, op: OpLessThan, value: v}
}

func (f Field[D, V]) GreaterThan(v V) Filter[D] {
	return Filter[D]{key: f.key, op: OpGreaterThan, value: v}
}

func (f Field[D, V]) LessThanOrEqual(v V) Filter[D] {
	return Filter[D]{key: f.key, op: OpLessThanOrEqual, value: v}
}

func (f Field[D, V]) GreaterThanOrEqual(v V) Filter[D] {
	return Filter[D]{key: f.key, op: OpGreaterThanOrEqual, value: v}
}

// ArrayField is a slice-valued field that also supports membership filters.
type ArrayField[D, E any] struct {
	Field[D, []E]
}

// NewArrayField declares an accessor for a []E field.
func NewArrayField[D, E any](key FieldKey, ptr func(d *D) *[]E) ArrayField[D, E] {
	return ArrayField[D, E]{Field: NewField[D, []E](key, ptr)}
}

// Contains matches documents whose array holds v.
func (f ArrayField[D, E]) Contains(v E) Filter[D] {
	return Filter[D]{key: f.key, op: OpArrayContains, value: v}
}

// ReferenceField exposes a Reference[T] field of D. There is no setter: the
// wrapper itself is retargeted or loaded through the returned pointer.
type ReferenceField[D, T any] struct {
	key FieldKey
	ptr func(*D) *Reference[T]
}

// NewReferenceField declares an accessor for a Reference[T] field.
func NewReferenceField[D, T any](key FieldKey, ptr func(d *D) *Reference[T]) ReferenceField[D, T] {
	return ReferenceField[D, T]{key: key, ptr: ptr}
}

func (f ReferenceField[D, T]) Key() FieldKey { return f.key }

func (ReferenceField[D, T]) owner(*D) {}

// Get returns the wrapper stored in d.
func (f ReferenceField[D, T]) Get(d *D) *Reference[T] {
	return f.ptr(d)
}
