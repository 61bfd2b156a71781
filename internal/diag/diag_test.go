package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/langrust/grust-sub010/internal/ir"
)

func TestBagAccumulatesWithoutFailingFast(t *testing.T) {
	bag := NewBag()
	assert.True(t, bag.Empty())

	bag.Add(KindUsage, ir.Location{}, "unused local x", nil)
	bag.Add(KindCausality, ir.Location{File: "f.gr", Line: 3, Col: 1}, "cycle on y", errors.New("boom"))

	assert.False(t, bag.Empty())
	assert.Len(t, bag.All(), 2)
	assert.False(t, bag.IsFatal())
}

func TestDiagnosticErrorFormatting(t *testing.T) {
	withLoc := &Diagnostic{Kind: KindType, Message: "bad type", Location: ir.Location{File: "a.gr", Line: 2, Col: 5}}
	assert.Equal(t, "a.gr:2:5: type: bad type", withLoc.Error())

	withoutLoc := &Diagnostic{Kind: KindUsage, Message: "unused"}
	assert.Equal(t, "usage: unused", withoutLoc.Error())
}

func TestBagMergePropagatesFatal(t *testing.T) {
	a := NewBag()
	a.Add(KindUsage, ir.Location{}, "one", nil)

	b := NewBag()
	b.Add(KindType, ir.Location{}, "two", nil)
	b.Fatal()

	a.Merge(b)
	assert.Len(t, a.All(), 2)
	assert.True(t, a.IsFatal())
}

func TestDiagnosticUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	bag := NewBag()
	bag.Add(KindCausality, ir.Location{}, "wrapped", cause)

	d := bag.All()[0]
	assert.ErrorIs(t, d.Unwrap(), cause)
}
