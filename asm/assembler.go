// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package asm implements a single pass macro assembler for the Rails
// processor.
//
// Each line holds at most one instruction, optionally preceded by one or
// more `label:` definitions. Comments start with `#`, `//` or `;`.
//
//	.equ LIMIT 10
//	        IMM r15 LIMIT
//	loop:   ADD r1 r1 r2
//	        BGT loop r1     ; or `loop:`
//	        EXIT
//
// Operands are registers (`r0`-`r15`) or 8-bit immediates. Immediates may
// be numbers in any Go integer syntax, character constants, equates,
// labels, or `$(...)` starlark expressions over the equates and the labels
// defined so far.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rails/machine"
	"github.com/ezrec/rails/translate"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// MACRO_DEPTH is the deepest macro expansion nesting allowed.
const MACRO_DEPTH = 16

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"PROM_SIZE": fmt.Sprintf("%v", machine.PROM_SIZE),
	"RAM_SIZE":  fmt.Sprintf("%v", machine.RAM_SIZE),
}

// link is an instruction word waiting for its label immediate.
type link struct {
	Index  int    // Index of the word to patch.
	Label  string // Label providing the immediate.
	LineNo int    // Source line of the instruction.
}

// Assembler is a single pass macro assembler for the Rails processor.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to instruction addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	words     []uint16
	lines     []int
	links     []link
	expansion int
	depth     int
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// pseudo converts a pseudo instruction into its real instruction.
func pseudo(words []string) []string {
	switch strings.ToUpper(words[0]) {
	case "NOP":
		return append([]string{"ADD", "r0", "r0", "r0"}, words[1:]...)
	case "MOV":
		if len(words) == 3 {
			return []string{"ADD", words[1], "r0", words[2]}
		}
	case "JMP":
		if len(words) == 2 {
			return []string{"BEQ", words[1], "r15"}
		}
	case "EXIT":
		return append([]string{"JMPL", "r0", "r0"}, words[1:]...)
	}

	return words
}

// mnemonicMap maps mnemonics to opcodes.
var mnemonicMap = map[string]machine.Opcode{}

func init() {
	for op := range machine.Opcode(16) {
		mnemonicMap[op.String()] = op
	}
}

// register parses a register name.
func register(word string) (reg uint8, err error) {
	if len(word) > 1 && (word[0] == 'r' || word[0] == 'R') {
		word = word[1:]
	}

	value, err := strconv.ParseUint(word, 10, 8)
	if err != nil || value >= machine.REGISTER_SIZE {
		err = ErrRegisterInvalid
		return
	}

	reg = uint8(value)
	return
}

// valueOf returns the value of a simple word.
func valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// immediate parses an 8-bit immediate. Words that are not numbers are
// returned as a label to link later.
func (asm *Assembler) immediate(word string) (imm uint8, label string, err error) {
	value, err := valueOf(word)
	if err != nil {
		label = strings.TrimSuffix(word, ":")
		if !isLabel(label) {
			return
		}
		err = nil
		return
	}

	if value < -128 || value > 255 {
		err = ErrImmediateInvalid
		return
	}

	imm = uint8(value)
	return
}

var labelRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// isLabel is true if the word can be a label.
func isLabel(word string) bool {
	return labelRe.MatchString(word)
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		if !isIdent(key) {
			continue
		}
		var v int64
		v, err = valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, ip := range asm.Label {
		if isIdent(key) {
			pred[key] = starlark.MakeInt(ip)
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isIdent is true if the word is a valid starlark identifier.
func isIdent(word string) bool {
	return identRe.MatchString(word)
}

var (
	charRe  = regexp.MustCompile(`'\\?[^']'`)
	parenRe = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine expands a single line into words, handling character constants,
// expressions, equates, labels and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRe.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !isLabel(label) {
			err = ErrTargetInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = len(asm.words)
		words = words[1:]
	}
	if len(words) == 0 {
		return
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		if asm.depth >= MACRO_DEPTH {
			err = ErrMacroDepth
			return
		}
		asm.depth++
		defer func() { asm.depth-- }()

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion.
		asm.expansion++
		local := fmt.Sprintf("_%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// parseWords assembles a single instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	words = pseudo(words)

	op, ok := mnemonicMap[strings.ToUpper(words[0])]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]
	need := 2
	if op.Encoding() == machine.ENC_CAB {
		need = 3
	}
	if len(args) < need {
		err = ErrOpcodeMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	if len(asm.words) >= machine.PROM_SIZE {
		err = ErrProgramSize
		return
	}

	var a, b, c, imm uint8
	var label string
	switch op.Encoding() {
	case machine.ENC_CAB:
		c, err = register(args[0])
		if err == nil {
			a, err = register(args[1])
		}
		if err == nil {
			b, err = register(args[2])
		}
	case machine.ENC_CA:
		c, err = register(args[0])
		if err == nil {
			a, err = register(args[1])
		}
	case machine.ENC_AB:
		a, err = register(args[0])
		if err == nil {
			b, err = register(args[1])
		}
	case machine.ENC_C_IMM:
		c, err = register(args[0])
		if err == nil {
			imm, label, err = asm.immediate(args[1])
		}
	case machine.ENC_IMM_C:
		imm, label, err = asm.immediate(args[0])
		if err == nil {
			c, err = register(args[1])
		}
	}
	if err != nil {
		return
	}

	var word machine.Word
	if op.Immediate() {
		word = machine.MakeWordImm(op, imm, c)
	} else {
		word = machine.MakeWord(op, a, b, c)
	}

	if len(label) != 0 {
		asm.links = append(asm.links, link{Index: len(asm.words), Label: label, LineNo: lineno})
	}

	if asm.Verbose {
		translate.Logf("%02x: %v", len(asm.words), word.Disassemble())
	}

	asm.words = append(asm.words, uint16(word))
	asm.lines = append(asm.lines, lineno)

	return
}

// stripComment removes any trailing comment. Comment markers inside
// character constants are kept.
func stripComment(text string) string {
	quoted := false
	for n := 0; n < len(text); n++ {
		switch ch := text[n]; {
		case ch == '\'':
			quoted = !quoted
		case quoted && ch == '\\':
			n++
		case quoted:
		case ch == '#', ch == ';', strings.HasPrefix(text[n:], "//"):
			return strings.TrimSpace(text[:n])
		}
	}

	return strings.TrimSpace(text)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int)
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.words = nil
	asm.lines = nil
	asm.links = nil
	asm.expansion = 0
	asm.depth = 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			translate.Logf("%v: %v", lineno, text)
		}

		line = stripComment(text)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for _, ln := range asm.links {
		ip, ok := asm.Label[ln.Label]
		if !ok {
			lineno, line = ln.LineNo, ln.Label
			err = ErrLabelMissing(ln.Label)
			return
		}
		if ip >= machine.PROM_SIZE {
			lineno, line = ln.LineNo, ln.Label
			err = ErrTargetInvalid
			return
		}
		asm.words[ln.Index] |= uint16(ip) << 4
	}

	prog = &Program{
		Words:  slices.Clone(asm.words),
		LineNo: slices.Clone(asm.lines),
	}

	return
}
