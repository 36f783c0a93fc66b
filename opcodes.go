package pkl

// Opcode bytes, named per CPython's pickletools.py and grouped by the
// protocol version that introduced them.
const (
	// Protocol 0

	opMark    byte = '(' // push markobject on stack
	opStop    byte = '.' // every pickle ends with STOP
	opPop     byte = '0' // discard topmost stack item
	opPopMark byte = '1' // discard stack top through topmost markobject
	opDup     byte = '2' // duplicate top stack item
	opFloat   byte = 'F' // push float; decimal string argument
	opInt     byte = 'I' // push int or bool; decimal string argument
	opLong    byte = 'L' // push long; decimal string argument
	opNone    byte = 'N' // push None
	opPersid  byte = 'P' // push persistent object; id is a string arg
	opReduce  byte = 'R' // apply callable to argtuple, both on stack
	opString  byte = 'S' // push string; quoted, newline-terminated
	opUnicode byte = 'V' // push text; raw-unicode-escape, newline-terminated
	opAppend  byte = 'a' // append stack top to list below it
	opBuild   byte = 'b' // call __setstate__ / update __dict__
	opGlobal  byte = 'c' // push Global(module, name); two string args
	opDict    byte = 'd' // pop to mark, build dict
	opGet     byte = 'g' // push memo[index]; index is a decimal string arg
	opInst    byte = 'i' // pop to mark, build class instance; 2 string args
	opList    byte = 'l' // pop to mark, build list
	opPut     byte = 'p' // store stack top in memo; index is a decimal string arg
	opSetitem byte = 's' // add key+value pair to dict below
	opTuple   byte = 't' // pop to mark, build tuple

	// Protocol 1

	opEmptyDict      byte = '}' // push empty dict
	opEmptyList      byte = ']' // push empty list
	opEmptyTuple     byte = ')' // push empty tuple
	opAppends        byte = 'e' // pop to mark, extend list below by all items
	opBinfloat       byte = 'G' // push float; 8-byte big-endian arg
	opBinget         byte = 'h' // push memo[index]; 1-byte index arg
	opBinint         byte = 'J' // push 4-byte little-endian signed int
	opBinint1        byte = 'K' // push 1-byte unsigned int
	opBinint2        byte = 'M' // push 2-byte little-endian unsigned int
	opBinpersid      byte = 'Q' // push persistent object; id popped from stack
	opBinput         byte = 'q' // store stack top in memo; 1-byte index arg
	opBinstring      byte = 'T' // push string; 4-byte LE length prefix
	opBinunicode     byte = 'X' // push text; 4-byte LE length prefix, UTF-8
	opLongBinget     byte = 'j' // push memo[index]; 4-byte LE index arg
	opLongBinput     byte = 'r' // store stack top in memo; 4-byte LE index arg
	opObj            byte = 'o' // pop to mark, build class instance (class pushed)
	opSetitems       byte = 'u' // pop to mark, add key+value pairs to dict below
	opShortBinstring byte = 'U' // push string; 1-byte length prefix

	// Protocol 2

	opExt1     byte = '\x82' // push object from extension registry; 1-byte index
	opExt2     byte = '\x83' // ditto, 2-byte index
	opExt4     byte = '\x84' // ditto, 4-byte index
	opLong1    byte = '\x8a' // push long; 1-byte length then little-endian signed
	opLong4    byte = '\x8b' // push long; 4-byte length then little-endian signed
	opNewfalse byte = '\x89' // push False
	opNewobj   byte = '\x81' // build via cls.__new__(argtuple)
	opNewtrue  byte = '\x88' // push True
	opProto    byte = '\x80' // identify pickle protocol; 1-byte arg
	opTuple1   byte = '\x85' // build 1-tuple from stack top
	opTuple2   byte = '\x86' // build 2-tuple from two topmost items
	opTuple3   byte = '\x87' // build 3-tuple from three topmost items

	// Protocol 3

	opBinbytes      byte = 'B' // push bytes; 4-byte LE length prefix
	opShortBinbytes byte = 'C' // push bytes; 1-byte length prefix

	// Protocol 4

	opBinbytes8       byte = '\x8e' // push bytes; 8-byte LE length prefix
	opBinunicode8     byte = '\x8d' // push text; 8-byte LE length prefix, UTF-8
	opEmptySet        byte = '\x8f' // push empty set
	opFrame           byte = '\x95' // begin a new frame; 8-byte LE size, informational
	opMemoize         byte = '\x94' // store stack top in memo at the next sequential index
	opNewobjEx        byte = '\x92' // build via cls.__new__(argtuple, kwargs)
	opShortBinUnicode byte = '\x8c' // push text; 1-byte length prefix, UTF-8
	opAdditems        byte = '\x90' // pop to mark, add items to set below
	opFrozenset       byte = '\x91' // pop to mark, build frozenset
	opStackGlobal     byte = '\x93' // pop name then scope, push Global(scope, name)

	// Protocol 5

	opByteArray8     byte = '\x96' // push bytearray; 8-byte LE length prefix
	opNextBuffer     byte = '\x97' // out-of-band buffer; unsupported
	opReadonlyBuffer byte = '\x98' // mark top buffer read-only; no-op annotation
)
