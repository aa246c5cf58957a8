package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"otp_gateway/config"
	"otp_gateway/mail"
	"otp_gateway/otp"
	"otp_gateway/phone"
	"otp_gateway/retriever"
	"otp_gateway/sms"

	"github.com/joho/godotenv"
	"github.com/tarm/serial"
	"golang.org/x/time/rate"
)

var (
	portMutex   sync.Mutex
	apiKey      string
	smsQueue    *sms.Queue
	smsProvider string
)

func loadConfig() (*config.AppConfig, error) {
	err := godotenv.Load("settings.env")
	if err != nil {
		log.Println("Warning: Could not load settings.env. Falling back to system environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "5643"
	}

	smsProvider = strings.ToLower(os.Getenv("SMS_PROVIDER"))
	if smsProvider != "hardware" && smsProvider != "twilio" {
		smsProvider = "hardware" // default
	}

	rateLimit, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT"), 64)
	if err != nil || rateLimit <= 0 {
		rateLimit = 1
	}

	burstLimit, err := strconv.Atoi(os.Getenv("BURST_LIMIT"))
	if err != nil || burstLimit <= 0 {
		burstLimit = 5
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || smtpPort <= 0 {
		smtpPort = 587
	}

	maxQueueSize, err := strconv.Atoi(os.Getenv("MAX_QUEUE_SIZE"))
	if err != nil || maxQueueSize <= 0 {
		maxQueueSize = 100
	}

	serialBaud := 115200
	if val, err := strconv.Atoi(os.Getenv("SERIAL_BAUD")); err == nil && val > 0 {
		serialBaud = val
	}

	return &config.AppConfig{
		ServerPort:    serverPort,
		RateLimit:     rateLimit,
		BurstLimit:    burstLimit,
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      smtpPort,
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		DevicePath:    os.Getenv("DEVICE_PATH"),
		MaxQueueSize:  maxQueueSize,
		SerialBaud:    serialBaud,
		CodeLength:    envInt("OTP_CODE_LENGTH", 6),
		CodeExpiry:    envSeconds("OTP_CODE_EXPIRY", 300),
		MaxAttempts:   envInt("OTP_MAX_ATTEMPTS", 3),
		MaxRetries:    envInt("OTP_MAX_RETRIES", 3),
		RetryCooldown: envSeconds("OTP_RETRY_COOLDOWN", 30),
		ListenTimeout: envSeconds("OTP_LISTEN_TIMEOUT", 60),
		SenderFilter:  os.Getenv("OTP_SENDER_FILTER"),
		PackageName:   os.Getenv("ANDROID_PACKAGE_NAME"),
		SigningCert:   os.Getenv("ANDROID_SIGNING_CERT"),
	}, nil
}

func envInt(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}

func openSerialPort(devicePath string, baudRate int) (io.ReadWriteCloser, error) {
	config := &serial.Config{
		Name: devicePath,
		Baud: baudRate,
	}
	return serial.OpenPort(config)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	apiKey = os.Getenv("API_KEY")
	if apiKey == "" {
		log.Println("Warning: API_KEY environment variable is not set.")
	}

	var serialPort io.ReadWriteCloser
	if smsProvider == "hardware" && cfg.DevicePath != "" {
		serialPort, err = openSerialPort(cfg.DevicePath, cfg.SerialBaud)
		if err != nil {
			log.Printf("Failed to open serial port: %v", err)
		} else {
			defer serialPort.Close()
		}
	}

	smsQueue = sms.NewQueue(cfg.MaxQueueSize)
	smsQueue.SetProvider(smsProvider)
	smsQueue.Start()
	defer smsQueue.Stop()

	if serialPort != nil {
		smsQueue.SetHardwareSender(func(m *sms.Message) error {
			portMutex.Lock()
			defer portMutex.Unlock()
			return sms.SendViaHardware(serialPort, m.Recipient, m.Body)
		})
	}

	// Twilio setup
	twilioSID := os.Getenv("TWILIO_SID")
	twilioAuth := os.Getenv("TWILIO_AUTH_TOKEN")
	twilioNumber := os.Getenv("TWILIO_PHONE")
	if twilioSID != "" && twilioAuth != "" && twilioNumber != "" {
		smsQueue.SetTwilioSender(func(m *sms.Message) error {
			return sms.SendViaTwilio(twilioSID, twilioAuth, twilioNumber, m)
		})
	}

	codeStore := otp.NewStore(cfg.CodeExpiry, cfg.MaxAttempts)
	defer codeStore.Close()

	registry := newControllerRegistry(otp.Config{
		CodeLength:    cfg.CodeLength,
		ListenTimeout: cfg.ListenTimeout,
		MaxRetries:    cfg.MaxRetries,
		RetryCooldown: cfg.RetryCooldown,
		SenderFilter:  cfg.SenderFilter,
	})
	registry.start()
	defer registry.stop()

	// Inbound monitor shares the modem with the sender, hence the mutex.
	if serialPort != nil {
		monitor := sms.NewMonitor(lockedPort{serialPort}, 10*time.Second, registry.dispatch)
		monitor.Start()
		defer monitor.Stop()
	}

	appHash := ""
	if cfg.PackageName != "" && cfg.SigningCert != "" {
		appHash = retriever.AppHash(cfg.PackageName, cfg.SigningCert)
		log.Printf("Retriever app hash for %s: %s", cfg.PackageName, appHash)
	}

	rl := NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.BurstLimit)

	http.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "pong")
	})

	http.Handle("/request-code", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleRequestCode(w, r, cfg, codeStore, registry, appHash, nil)
	})))

	http.Handle("/verify-code", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleVerifyCode(w, r, codeStore, registry)
	})))

	http.Handle("/extract-code", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleExtractCode(w, r, cfg)
	})))

	http.Handle("/validate-phone", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, phone.Validate(r.FormValue("phone")))
	})))

	http.Handle("/app-hash", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if appHash == "" {
			http.Error(w, "Android app identity not configured", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"package": cfg.PackageName, "hash": appHash})
	})))

	http.Handle("/code-status", rl.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authenticate(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		res := phone.Validate(r.FormValue("phone"))
		if !res.Valid {
			http.Error(w, "Invalid phone number format", http.StatusBadRequest)
			return
		}
		writeJSON(w, registry.get(phoneKey(res)).Snapshot())
	})))

	log.Printf("Server is listening on port %s...", cfg.ServerPort)
	if err := http.ListenAndServe(":"+cfg.ServerPort, nil); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func handleRequestCode(w http.ResponseWriter, r *http.Request, cfg *config.AppConfig, codeStore *otp.Store, registry *controllerRegistry, appHash string, dialer mail.MailDialer) {
	res := phone.Validate(r.FormValue("phone"))
	if !res.Valid {
		http.Error(w, "Invalid phone number format: "+string(res.Err), http.StatusBadRequest)
		return
	}

	// All input is checked before any attempt is consumed, so a malformed
	// request never arms the cooldown.
	viaEmail := r.FormValue("channel") == "email"
	to := strings.TrimSpace(r.FormValue("email"))
	if viaEmail {
		if to == "" {
			http.Error(w, "Missing email address", http.StatusBadRequest)
			return
		}
		if !mail.ValidEmail(to) {
			http.Error(w, "Invalid email address format", http.StatusBadRequest)
			return
		}
	}

	key := phoneKey(res)
	ctrl := registry.get(key)
	if err := ctrl.StartListening(); err != nil {
		switch {
		case errors.Is(err, otp.ErrCoolingDown):
			snap := ctrl.Snapshot()
			http.Error(w, fmt.Sprintf("Cooldown active, retry in %d seconds", snap.CooldownRemaining), http.StatusTooManyRequests)
		case errors.Is(err, otp.ErrRetriesExhausted):
			http.Error(w, "Maximum resend requests reached", http.StatusTooManyRequests)
		default:
			http.Error(w, "Failed to start verification", http.StatusInternalServerError)
		}
		return
	}

	code, err := otp.GenerateCode(cfg.CodeLength)
	if err != nil {
		ctrl.Fail(err)
		http.Error(w, "Failed to generate code", http.StatusInternalServerError)
		return
	}
	codeStore.Put(key, code)

	if viaEmail {
		if dialer == nil {
			dialer = mail.NewDialer(cfg)
		}
		if err := mail.SendCode(cfg, to, code, cfg.CodeExpiry, dialer); err != nil {
			log.Printf("Failed to email code: %v", err)
			// The code was never delivered: close the window and drop it
			// so it cannot be verified.
			ctrl.Fail(err)
			codeStore.Delete(key)
			http.Error(w, "Failed to send code", http.StatusInternalServerError)
			return
		}
	} else {
		body := sms.BuildCodeMessage(code)
		if appHash != "" {
			body = sms.BuildRetrieverMessage(code, appHash)
		}
		smsQueue.Send(&sms.Message{Recipient: key, Body: body})
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Verification code queued\n"))
}

// phoneKey is the store/registry key for a validated number. Generic
// validations without a plus prefix have no E.164 form, so the bare digits
// serve as the key.
func phoneKey(res phone.Result) string {
	if res.E164 != "" {
		return res.E164
	}
	return res.NationalNumber
}

func handleVerifyCode(w http.ResponseWriter, r *http.Request, codeStore *otp.Store, registry *controllerRegistry) {
	res := phone.Validate(r.FormValue("phone"))
	if !res.Valid {
		http.Error(w, "Invalid phone number format", http.StatusBadRequest)
		return
	}
	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	if err := codeStore.Verify(phoneKey(res), code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, otp.ErrCodeExpired):
			http.Error(w, err.Error(), http.StatusGone)
		case errors.Is(err, otp.ErrMaxAttempts):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		default:
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
		return
	}

	ctrl := registry.get(phoneKey(res))
	ctrl.StopListening()
	ctrl.Reset()

	_, _ = w.Write([]byte("Code verified\n"))
}

func handleExtractCode(w http.ResponseWriter, r *http.Request, cfg *config.AppConfig) {
	message := r.FormValue("message")
	if strings.TrimSpace(message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	length := cfg.CodeLength
	if val, err := strconv.Atoi(r.FormValue("length")); err == nil && val > 0 {
		length = val
	}

	code, found := otp.Extract(message, length)
	writeJSON(w, map[string]any{
		"code":   code,
		"found":  found,
		"format": otp.Classify(message),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func authenticate(r *http.Request) bool {
	clientAPIKey := r.Header.Get("Authorization")
	return clientAPIKey == apiKey
}

// lockedPort serializes modem access between the monitor and the sender.
type lockedPort struct {
	port io.ReadWriter
}

func (p lockedPort) Write(b []byte) (int, error) {
	portMutex.Lock()
	defer portMutex.Unlock()
	return p.port.Write(b)
}

func (p lockedPort) Read(b []byte) (int, error) {
	portMutex.Lock()
	defer portMutex.Unlock()
	return p.port.Read(b)
}
