/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestTextFormatterWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("TEXT_TEST")
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)

	l.WithFields(logrus.Fields{"table": "members", "rows": 3}).Debug("bulk update")

	line := buf.String()
	assert.Contains(t, line, "bulk update")
	assert.Contains(t, line, "rows=3 table=members")
	assert.Contains(t, line, "TEXT_TEST")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "JSON_TEST"})

	l.WithField("error", os.ErrNotExist).Warn("lookup failed")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "JSON_TEST", rec["model"])
	assert.Equal(t, "lookup failed", rec["message"])
	assert.Equal(t, os.ErrNotExist.Error(), rec["fields"].(map[string]interface{})["error"])
}

func TestSetLoggerLevel(t *testing.T) {
	NewLogger("LEVEL_TEST")
	assert.True(t, SetLoggerLevel("LEVEL_TEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, GetLogger("LEVEL_TEST").GetLevel())
	assert.False(t, SetLoggerLevel("MISSING_LOGGER", "error"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ROSTER_TEST_BOOL", "true")
	t.Setenv("ROSTER_TEST_BAD", "maybe")
	assert.True(t, EnvDefaultBool("ROSTER_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("ROSTER_TEST_BAD", true))
	assert.Equal(t, "x", EnvDefaultString("ROSTER_TEST_UNSET", "x"))
}
