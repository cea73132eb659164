package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlow_RunsStepsInOrder(t *testing.T) {
	var ran []string
	NewFlow(t).
		Given("an empty ledger", func(t *testing.T) { ran = append(ran, "given") }).
		When("alice issues", func(t *testing.T) { ran = append(ran, "when") }).
		Then("alice owns asset 1", func(t *testing.T) { ran = append(ran, "then") }).
		And("the journal has one entry", func(t *testing.T) { ran = append(ran, "and") })

	assert.Equal(t, []string{"given", "when", "then", "and"}, ran)
}

func TestFlow_SkipsAfterFailedStep(t *testing.T) {
	f := &Flow{t: t, broken: "When alice issues"}
	ran := false
	f.Then("alice owns asset 1", func(t *testing.T) { ran = true })

	assert.False(t, ran)
	assert.Equal(t, "When alice issues", f.broken)
}
