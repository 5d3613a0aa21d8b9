package vm

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/embervm/pkg/gc"
)

func run(t *testing.T, source string) (stdout, stderr string, result InterpretResult) {
	t.Helper()
	heap := gc.New(false, zerolog.Nop())
	var out, errOut strings.Builder
	interp := New(heap, Options{Stdout: &out, Stderr: &errOut})
	result = interp.Interpret(source)
	return out.String(), errOut.String(), result
}

func TestInterpretArithmetic(t *testing.T) {
	out, _, result := run(t, `print 1 + 2 * 3;`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "7\n", out)
}

func TestInterpretStringConcatenation(t *testing.T) {
	out, _, result := run(t, `print "foo" + "bar";`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "foobar\n", out)
}

func TestInterpretGlobalAndLocalVariables(t *testing.T) {
	out, _, result := run(t, `
var greeting = "hi";
{
  var name = "world";
  print greeting + " " + name;
}
`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "hi world\n", out)
}

func TestInterpretClosuresShareUpvalue(t *testing.T) {
	out, _, result := run(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestInterpretClassWithInitAndMethod(t *testing.T) {
	out, _, result := run(t, `
class Counter {
  init(start) { this.value = start; }
  bump() { this.value = this.value + 1; return this.value; }
}
var c = Counter(10);
print c.bump();
print c.bump();
`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "11\n12\n", out)
}

func TestInterpretInheritanceAndSuper(t *testing.T) {
	out, _, result := run(t, `
class Animal {
  speak() { return "..."; }
  describe() { return "I say " + this.speak(); }
}
class Dog < Animal {
  speak() { return "woof"; }
  parentSpeak() { return super.speak(); }
}
var d = Dog();
print d.describe();
print d.parentSpeak();
`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "I say woof\n...\n", out)
}

func TestInterpretUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, errOut, result := run(t, `print unknown;`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Undefined variable 'unknown'.")
}

func TestInterpretForLoop(t *testing.T) {
	out, _, result := run(t, `
for (var i = 0; i < 3; i = i + 1) {
  print i;
}
`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestInterpretTypeErrorOnAdd(t *testing.T) {
	_, errOut, result := run(t, `print 1 + "two";`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Operands must be two numbers or two strings.")
}

func TestInterpretRuntimeErrorResetsStack(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var out, errOut strings.Builder
	interp := New(heap, Options{Stdout: &out, Stderr: &errOut})

	result := interp.Interpret(`print unknown;`)
	require.Equal(t, InterpretRuntimeError, result)

	errOut.Reset()
	out.Reset()
	result = interp.Interpret(`print 1 + 1;`)
	require.Equal(t, InterpretOK, result)
	assert.Equal(t, "2\n", out.String())
}

func TestInterpretREPLSharesGlobalsAcrossCalls(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var out strings.Builder
	interp := New(heap, Options{Stdout: &out, Stderr: &strings.Builder{}})

	require.Equal(t, InterpretOK, interp.Interpret(`var x = 40;`))
	require.Equal(t, InterpretOK, interp.Interpret(`print x + 2;`))
	assert.Equal(t, "42\n", out.String())
}

func TestInterpretCompileErrorReported(t *testing.T) {
	_, errOut, result := run(t, `1 + ;`)
	assert.Equal(t, InterpretCompileError, result)
	assert.NotEmpty(t, errOut)
}
