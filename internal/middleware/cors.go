package middleware

import (
	"net/http"
	"strings"
)

// CORS 返回按白名单放行的跨域中间件。白名单包含 "*" 时放行所有来源。
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && OriginAllowed(allowedOrigins, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Cache-Control")
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed 判断 origin 是否在白名单内（忽略大小写与末尾斜杠）。
func OriginAllowed(allowedOrigins []string, origin string) bool {
	origin = strings.TrimRight(strings.ToLower(origin), "/")
	for _, allowed := range allowedOrigins {
		allowed = strings.TrimRight(strings.ToLower(strings.TrimSpace(allowed)), "/")
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// CheckOrigin 适配 websocket.Upgrader 的来源校验；没有 Origin 头的非浏览器客户端直接放行。
func CheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || OriginAllowed(allowedOrigins, origin)
	}
}
