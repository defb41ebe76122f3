package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tidasone/internal/util"
)

// =================================================================================
// CAMPOS HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// UpstreamStatus es el status HTTP devuelto por un proveedor externo.
func UpstreamStatus(v int) zap.Field { return zap.Int("upstream_status", v) }

// =================================================================================
// CAMPOS DE DOMINIO
// =================================================================================

// Provider identifica el proveedor de identidad (google, github, amazon).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Subject es el subject resuelto, con el email enmascarado. Nunca loguear
// tokens ni codes.
func Subject(v string) zap.Field { return zap.String("sub", util.MaskSubject(v)) }

// Algorithm identifica el algoritmo KEM/AEAD.
func Algorithm(v string) zap.Field { return zap.String("alg", v) }

// =================================================================================
// CAMPOS DE SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
