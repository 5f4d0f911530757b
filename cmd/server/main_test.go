package main

import (
	"testing"

	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestListenAddr(t *testing.T) {
	assert.Equal(t, "localhost:3000", listenAddr(nil))
	assert.Equal(t, "0.0.0.0:8080", listenAddr(&config.Server{Host: "0.0.0.0", Port: 8080}))
}

func TestSchemeOf(t *testing.T) {
	assert.Equal(t, "http", schemeOf(nil))
	assert.Equal(t, "https", schemeOf(&config.Server{Scheme: "https"}))
}
