package main

import (
	"testing"

	"github.com/muhammadchandra19/exchange/internal/usecase/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_DefaultsToFileSource(t *testing.T) {
	p, err := parseArgs([]string{"feed.jsonl"})
	require.NoError(t, err)
	assert.False(t, p.sourceKafka)
	assert.Equal(t, "feed.jsonl", p.path)
}

func TestParseArgs_SourceKafka_MakesPathOptional(t *testing.T) {
	p, err := parseArgs([]string{"--source", "kafka"})
	require.NoError(t, err)
	assert.True(t, p.sourceKafka)
	assert.Equal(t, "", p.path)
}

func TestParseArgs_UnknownSourceValue_Errors(t *testing.T) {
	_, err := parseArgs([]string{"feed.jsonl", "--source", "carrier-pigeon"})
	require.Error(t, err)
}

func TestParseArgs_FileSourceWithoutPath_Errors(t *testing.T) {
	_, err := parseArgs(nil)
	require.Error(t, err)
}

func TestBuildSource_File_ReturnsJSONLSource(t *testing.T) {
	src, err := buildSource(params{path: "feed.jsonl"}, nil)
	require.NoError(t, err)
	_, ok := src.(*replay.JSONLSource)
	assert.True(t, ok)
}

func TestBuildSource_Kafka_ReturnsKafkaFeedSource(t *testing.T) {
	t.Setenv("BROKER", "localhost:9092")
	t.Setenv("TOPIC", "feed")

	src, err := buildSource(params{sourceKafka: true}, nil)
	require.NoError(t, err)
	_, ok := src.(*replay.KafkaFeedSource)
	assert.True(t, ok)
}
