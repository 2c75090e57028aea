package expander

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	vars := FromMap(map[string]string{"date": "2024-01-02", "batch_id": "b1", "empty": ""})
	testCases := []struct {
		description string
		input       string
		expected    string
		shouldError bool
	}{
		{description: "no placeholder", input: "echo hello", expected: "echo hello"},
		{description: "single placeholder", input: "${date}", expected: "2024-01-02"},
		{description: "embedded placeholders", input: "run-${batch_id}-${date}.log", expected: "run-b1-2024-01-02.log"},
		{description: "empty value", input: "[${empty}]", expected: "[]"},
		{description: "dollar without brace", input: "$HOME/${batch_id}", expected: "$HOME/b1"},
		{description: "unknown variable", input: "${missing}", shouldError: true},
		{description: "unterminated", input: "x ${date", shouldError: true},
		{description: "empty name", input: "${}", shouldError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := Expand(testCase.input, vars)
			if testCase.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, actual)
		})
	}
}

func TestExpandMap(t *testing.T) {
	vars := FromMap(map[string]string{"a": "1"})
	actual, err := ExpandMap(map[string]string{"X": "${a}", "Y": "y"}, vars)
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"X": "1", "Y": "y"}, actual)

	_, err = ExpandMap(map[string]string{"X": "${b}"}, vars)
	assert.ErrorIs(t, err, ErrUnresolved)

	list, err := ExpandAll([]string{"${a}", "b"}, vars)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "b"}, list)
}
