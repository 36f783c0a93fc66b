package pkl

// Options tunes Load's behavior. A nil *Options is equivalent to the
// zero value: no resolvers, so REDUCE/INST/OBJ/NEWOBJ/NEWOBJ_EX
// results come back as *ObjectDescriptor and any persistent id is a
// fatal error.
type Options struct {
	// ObjectResolver is consulted, after the built-in resolver, for
	// every ObjectDescriptor produced by REDUCE/INST/OBJ/NEWOBJ/
	// NEWOBJ_EX as it leaves the stack. It returns (replacement, true,
	// nil) if it recognizes the descriptor, or (nil, false, nil) to
	// leave the descriptor as-is. A non-nil error aborts the decode
	// with ErrorKind ResolverContract.
	ObjectResolver func(*ObjectDescriptor) (Value, bool, error)

	// PersistentIDResolver handles PERSID/BINPERSID. If nil, any
	// persistent-id opcode is a fatal MissingResolver error. Otherwise
	// it is called with the id value (string for PERSID, arbitrary
	// Value for BINPERSID) and its result is pushed in place of the
	// persistent reference.
	PersistentIDResolver func(id Value) (Value, error)
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}
