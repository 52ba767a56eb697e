package milvus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	milvusopts "github.com/kart-io/ragquery/pkg/options/milvus"
)

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	opts := milvusopts.NewOptions()
	opts.Address = ""
	_, err = New(context.Background(), opts)
	assert.ErrorContains(t, err, "milvus.address is required")
}
