package firesnapshot

import (
	"fmt"
	"reflect"
	"unsafe"

	"cloud.google.com/go/firestore"
	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

var documentRefType = reflect.TypeOf((*firestore.DocumentRef)(nil))

// Codec encodes document data using the same field names Firestore stores,
// taken from the `firestore` struct tags. Document references are written as
// their full resource name and resolved back through the codec's Resolver.
type Codec struct {
	resolver Resolver
	api      jsoniter.API
	// copyAPI additionally tags interface values with their dynamic type.
	copyAPI jsoniter.API
}

// NewCodec returns a codec resolving references through r. r may be nil, in
// which case references cannot be decoded.
func NewCodec(r Resolver) *Codec {
	cfg := jsoniter.Config{
		TagKey:        "firestore",
		CaseSensitive: true,
		SortMapKeys:   true,
	}

	api := cfg.Froze()
	api.RegisterExtension(&referenceExtension{resolver: r})

	copyAPI := cfg.Froze()
	copyAPI.RegisterExtension(&referenceExtension{resolver: r})
	copyAPI.RegisterExtension(&taggedValueExtension{resolver: r})

	return &Codec{resolver: r, api: api, copyAPI: copyAPI}
}

// Resolver returns the resolver references are decoded with.
func (c *Codec) Resolver() Resolver {
	return c.resolver
}

func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c *Codec) Unmarshal(data []byte, v interface{}) error {
	return c.api.Unmarshal(data, v)
}

// DecodeMap decodes a raw field map, such as RawDocument.Data, into v.
func (c *Codec) DecodeMap(fields map[string]interface{}, v interface{}) error {
	data, err := c.api.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode field map: %w", err)
	}
	return c.api.Unmarshal(data, v)
}

// Copy deep-copies src into dst through an encode/decode round trip.
// Values held in interface fields, maps and slices keep their Go type.
// A dynamic type the copy cannot reproduce is reported as an error.
func (c *Codec) Copy(src, dst interface{}) error {
	data, err := c.encodeForCopy(src)
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	if err := c.copyAPI.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}

// encodeForCopy marshals v with copyAPI. Struct encoders flatten stream
// errors into strings, so the tagged coder reports through the attachment.
func (c *Codec) encodeForCopy(v interface{}) ([]byte, error) {
	stream := c.copyAPI.BorrowStream(nil)
	defer c.copyAPI.ReturnStream(stream)

	state := &copyState{}
	stream.Attachment = state
	stream.WriteVal(v)
	if state.err != nil {
		return nil, state.err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

type referenceExtension struct {
	jsoniter.DummyExtension
	resolver Resolver
}

func (e *referenceExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Type1() != documentRefType {
		return nil
	}
	return &referenceCoder{resolver: e.resolver}
}

func (e *referenceExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	if typ.Type1() != documentRefType {
		return nil
	}
	return &referenceCoder{resolver: e.resolver}
}

type referenceCoder struct {
	resolver Resolver
}

func (c *referenceCoder) IsEmpty(ptr unsafe.Pointer) bool {
	return *(**firestore.DocumentRef)(ptr) == nil
}

func (c *referenceCoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	ref := *(**firestore.DocumentRef)(ptr)
	if ref == nil {
		stream.WriteNil()
		return
	}
	stream.WriteString(ref.Path)
}

func (c *referenceCoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	if iter.ReadNil() {
		*(**firestore.DocumentRef)(ptr) = nil
		return
	}
	path := shortPath(iter.ReadString())
	var ref *firestore.DocumentRef
	if c.resolver != nil {
		ref = c.resolver.Doc(path)
	}
	if ref == nil {
		iter.ReportError("decode document reference", "cannot resolve "+path)
		return
	}
	*(**firestore.DocumentRef)(ptr) = ref
}
