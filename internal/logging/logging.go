// Package logging provides a minimal leveled logger shared across strata,
// the recording pipeline and the agent loop.
package logging

import (
	"log"
	"os"
)

var (
	disabled = false
	logger   = log.New(os.Stdout, "", log.LstdFlags)
)

// Disable turns off all logging.
func Disable() { disabled = true }

// Enable turns logging back on.
func Enable() { disabled = false }

func Info(v ...any)                    { if !disabled { logger.Println(v...) } }
func Infof(format string, v ...any)    { if !disabled { logger.Printf(format, v...) } }
func Warn(v ...any)                    { if !disabled { logger.Println(v...) } }
func Warnf(format string, v ...any)    { if !disabled { logger.Printf(format, v...) } }
func Error(v ...any)                   { if !disabled { logger.Println(v...) } }
func Errorf(format string, v ...any)   { if !disabled { logger.Printf(format, v...) } }
func Debug(v ...any)                   { if !disabled { logger.Println(v...) } }
func Debugf(format string, v ...any)   { if !disabled { logger.Printf(format, v...) } }

// Logger is a stateless value type that can be embedded in structs so call
// sites read naturally (l.Infof(...)) without every component importing the
// package functions directly.
type Logger struct{ prefix string }

// Named returns a Logger that prefixes every line with name.
func Named(name string) Logger { return Logger{prefix: "[" + name + "] "} }

func (l Logger) Info(v ...any)                 { Info(append([]any{l.prefix}, v...)...) }
func (l Logger) Infof(format string, v ...any) { Infof(l.prefix+format, v...) }
func (l Logger) Warnf(format string, v ...any)  { Warnf(l.prefix+format, v...) }
func (l Logger) Error(v ...any)                { Error(append([]any{l.prefix}, v...)...) }
func (l Logger) Errorf(format string, v ...any) { Errorf(l.prefix+format, v...) }
func (l Logger) Debugf(format string, v ...any) { Debugf(l.prefix+format, v...) }
