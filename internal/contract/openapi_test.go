package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankOpenAPI = `
openapi: 3.0.3
info:
  title: Bank API
  version: "1.0"
paths: {}
components:
  schemas:
    Account:
      type: object
      required: [account_number, balance, currency, transactions]
      properties:
        account_number: {type: string}
        balance: {type: number}
        currency: {type: string}
        nickname: {type: string}
        transactions:
          type: array
          items:
            $ref: '#/components/schemas/Transaction'
    Transaction:
      type: object
      required: [id, amount, type, date]
      properties:
        id: {type: string}
        amount: {type: integer}
        type:
          type: string
          enum: [deposit, withdrawal, transfer]
        date: {type: string, format: date}
    Tags:
      type: object
      required: [labels]
      properties:
        labels:
          type: array
          items: {type: string}
    Dangling:
      type: object
      required: [ghost]
      properties:
        id: {type: string}
`

func TestFromOpenAPI_Account(t *testing.T) {
	schema, err := FromOpenAPI([]byte(bankOpenAPI), "Account")
	require.NoError(t, err)
	assert.Equal(t, BankAccount(), schema)

	require.NoError(t, Validate(validAccount(), schema))
}

func TestFromOpenAPI_Errors(t *testing.T) {
	tests := []struct {
		name      string
		component string
	}{
		{name: "unknown component", component: "Ledger"},
		{name: "array of scalars", component: "Tags"},
		{name: "required without property", component: "Dangling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromOpenAPI([]byte(bankOpenAPI), tt.component)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))
		})
	}
}

func TestFromOpenAPI_InvalidDocument(t *testing.T) {
	_, err := FromOpenAPI([]byte("openapi: [broken"), "Account")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}
