// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"

	"github.com/go-logr/logr"
)

// TeeToStore returns a logger that forwards to delegate and additionally
// retains every record in the store. Records carrying a "topic" key are filed
// under that topic, so cascade failures logged with topic Sync end up as
// inspectable Sync entries.
func TeeToStore(delegate logr.Logger, store *Store) logr.Logger {
	return logr.New(&storeSink{
		delegate: delegate.GetSink(),
		store:    store,
	})
}

type storeSink struct {
	delegate logr.LogSink
	store    *Store
	name     string
	values   []any
}

var _ logr.LogSink = &storeSink{}

func (s *storeSink) Init(info logr.RuntimeInfo) {
	if s.delegate != nil {
		s.delegate.Init(info)
	}
}

func (s *storeSink) Enabled(level int) bool {
	return s.delegate == nil || s.delegate.Enabled(level)
}

func (s *storeSink) Info(level int, msg string, kvs ...any) {
	entryLevel := LevelInfo
	if level > 0 {
		entryLevel = LevelDebug
	}
	s.append(entryLevel, msg, kvs)
	if s.delegate != nil {
		s.delegate.Info(level, msg, kvs...)
	}
}

func (s *storeSink) Error(err error, msg string, kvs ...any) {
	s.append(LevelError, fmt.Sprintf("%s: %v", msg, err), kvs)
	if s.delegate != nil {
		s.delegate.Error(err, msg, kvs...)
	}
}

func (s *storeSink) WithValues(kvs ...any) logr.LogSink {
	clone := *s
	clone.values = append(append([]any{}, s.values...), kvs...)
	if s.delegate != nil {
		clone.delegate = s.delegate.WithValues(kvs...)
	}
	return &clone
}

func (s *storeSink) WithName(name string) logr.LogSink {
	clone := *s
	if clone.name != "" {
		clone.name += "."
	}
	clone.name += name
	if s.delegate != nil {
		clone.delegate = s.delegate.WithName(name)
	}
	return &clone
}

func (s *storeSink) append(level Level, msg string, kvs []any) {
	component := s.name
	if component == "" {
		component = "canic"
	}

	topic := topicFrom(append(append([]any{}, s.values...), kvs...))
	s.store.Append(component, level, topic, msg)
}

func topicFrom(kvs []any) *Topic {
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok || key != "topic" {
			continue
		}
		switch value := kvs[i+1].(type) {
		case Topic:
			return &value
		case string:
			topic := Topic(value)
			return &topic
		}
	}
	return nil
}
