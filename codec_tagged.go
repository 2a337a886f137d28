package firesnapshot

import (
	"encoding/base64"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"time"
	"unsafe"

	"cloud.google.com/go/firestore"
	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

var emptyInterfaceType = reflect.TypeOf((*interface{})(nil)).Elem()

// Kinds of tagged interface values. These are the dynamic types Firestore
// yields for an untyped field, plus int.
const (
	kindString    = "string"
	kindBool      = "bool"
	kindInt       = "int"
	kindInt64     = "int64"
	kindFloat64   = "float64"
	kindBytes     = "bytes"
	kindTime      = "time"
	kindReference = "ref"
	kindMap       = "map"
	kindArray     = "array"
)

// taggedValueExtension encodes interface{} values as {"t": kind, "v": value}
// so that decoding restores the original dynamic type.
type taggedValueExtension struct {
	jsoniter.DummyExtension
	resolver Resolver
}

func (e *taggedValueExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Type1() != emptyInterfaceType {
		return nil
	}
	return &taggedValueCoder{resolver: e.resolver}
}

func (e *taggedValueExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	if typ.Type1() != emptyInterfaceType {
		return nil
	}
	return &taggedValueCoder{resolver: e.resolver}
}

type taggedValueCoder struct {
	resolver Resolver
}

func (c *taggedValueCoder) IsEmpty(ptr unsafe.Pointer) bool {
	return *(*interface{})(ptr) == nil
}

func (c *taggedValueCoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	c.encodeValue(*(*interface{})(ptr), stream)
}

func (c *taggedValueCoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	*(*interface{})(ptr) = c.decodeValue(iter)
}

func (c *taggedValueCoder) encodeValue(v interface{}, stream *jsoniter.Stream) {
	if v == nil {
		stream.WriteNil()
		return
	}

	switch val := v.(type) {
	case string:
		c.writeTagged(stream, kindString, func() { stream.WriteString(val) })
	case bool:
		c.writeTagged(stream, kindBool, func() { stream.WriteBool(val) })
	case int:
		c.writeTagged(stream, kindInt, func() { stream.WriteInt(val) })
	case int64:
		c.writeTagged(stream, kindInt64, func() { stream.WriteInt64(val) })
	case float64:
		c.writeTagged(stream, kindFloat64, func() {
			stream.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		})
	case []byte:
		c.writeTagged(stream, kindBytes, func() {
			if val == nil {
				stream.WriteNil()
				return
			}
			stream.WriteString(base64.StdEncoding.EncodeToString(val))
		})
	case time.Time:
		text, err := val.MarshalText()
		if err != nil {
			setStreamError(stream, fmt.Errorf("%w: %v", ErrNotReplicable, err))
			stream.WriteNil()
			return
		}
		c.writeTagged(stream, kindTime, func() { stream.WriteString(string(text)) })
	case *firestore.DocumentRef:
		c.writeTagged(stream, kindReference, func() {
			if val == nil {
				stream.WriteNil()
				return
			}
			stream.WriteString(val.Path)
		})
	case map[string]interface{}:
		c.writeTagged(stream, kindMap, func() {
			if val == nil {
				stream.WriteNil()
				return
			}
			stream.WriteObjectStart()
			for i, key := range slices.Sorted(maps.Keys(val)) {
				if i > 0 {
					stream.WriteMore()
				}
				stream.WriteObjectField(key)
				c.encodeValue(val[key], stream)
			}
			stream.WriteObjectEnd()
		})
	case []interface{}:
		c.writeTagged(stream, kindArray, func() {
			if val == nil {
				stream.WriteNil()
				return
			}
			stream.WriteArrayStart()
			for i, elem := range val {
				if i > 0 {
					stream.WriteMore()
				}
				c.encodeValue(elem, stream)
			}
			stream.WriteArrayEnd()
		})
	default:
		setStreamError(stream, fmt.Errorf("%w: unsupported dynamic type %T", ErrNotReplicable, v))
		stream.WriteNil()
	}
}

func (c *taggedValueCoder) writeTagged(stream *jsoniter.Stream, kind string, writeValue func()) {
	stream.WriteObjectStart()
	stream.WriteObjectField("t")
	stream.WriteString(kind)
	stream.WriteMore()
	stream.WriteObjectField("v")
	writeValue()
	stream.WriteObjectEnd()
}

func (c *taggedValueCoder) decodeValue(iter *jsoniter.Iterator) interface{} {
	if iter.ReadNil() {
		return nil
	}
	var (
		kind string
		out  interface{}
	)
	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		switch field {
		case "t":
			kind = iter.ReadString()
		case "v":
			out = c.decodeKind(kind, iter)
		default:
			iter.Skip()
		}
	}
	return out
}

func (c *taggedValueCoder) decodeKind(kind string, iter *jsoniter.Iterator) interface{} {
	switch kind {
	case kindString:
		return iter.ReadString()
	case kindBool:
		return iter.ReadBool()
	case kindInt:
		return iter.ReadInt()
	case kindInt64:
		return iter.ReadInt64()
	case kindFloat64:
		f, err := strconv.ParseFloat(iter.ReadString(), 64)
		if err != nil {
			iter.ReportError("decode float64", err.Error())
		}
		return f
	case kindBytes:
		if iter.ReadNil() {
			return []byte(nil)
		}
		b, err := base64.StdEncoding.DecodeString(iter.ReadString())
		if err != nil {
			iter.ReportError("decode bytes", err.Error())
		}
		return b
	case kindTime:
		var t time.Time
		if err := t.UnmarshalText([]byte(iter.ReadString())); err != nil {
			iter.ReportError("decode time", err.Error())
		}
		return t
	case kindReference:
		if iter.ReadNil() {
			return (*firestore.DocumentRef)(nil)
		}
		path := shortPath(iter.ReadString())
		var ref *firestore.DocumentRef
		if c.resolver != nil {
			ref = c.resolver.Doc(path)
		}
		if ref == nil {
			iter.ReportError("decode document reference", "cannot resolve "+path)
		}
		return ref
	case kindMap:
		if iter.ReadNil() {
			return map[string]interface{}(nil)
		}
		m := map[string]interface{}{}
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			m[key] = c.decodeValue(it)
			return true
		})
		return m
	case kindArray:
		if iter.ReadNil() {
			return []interface{}(nil)
		}
		a := []interface{}{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			a = append(a, c.decodeValue(it))
			return true
		})
		return a
	}
	iter.ReportError("decode tagged value", "unknown kind "+strconv.Quote(kind))
	iter.Skip()
	return nil
}

// copyState is attached to the stream by Codec.encodeForCopy.
type copyState struct {
	err error
}

func setStreamError(stream *jsoniter.Stream, err error) {
	if state, ok := stream.Attachment.(*copyState); ok && state.err == nil {
		state.err = err
	}
	if stream.Error == nil {
		stream.Error = err
	}
}
