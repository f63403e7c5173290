package device

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/vekiscore/apimodel"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/config"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/tool"
	"github.com/sirupsen/logrus"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"
)

const defaultAdminTimeout = 30 * time.Second

// SettingsReader gives the current settings snapshot, see runtime.Runtime
type SettingsReader interface {
	Settings() *model.ScoreboardSettings
}

type Api struct {
	lock      sync.Mutex
	submitter command.Submitter
	settings  SettingsReader

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config       *config.ServerConfig
	adminTimeout time.Duration
	pending      map[uuid.UUID]chan command.AdminResult
}

func NewApi(config *config.ServerConfig, submitter command.Submitter, settings SettingsReader, metricsHandler http.Handler) *Api {
	api := Api{
		config:       config,
		submitter:    submitter,
		settings:     settings,
		adminTimeout: defaultAdminTimeout,
		pending:      make(map[uuid.UUID]chan command.AdminResult),
	}

	api.router = mux.NewRouter().StrictSlash(false)
	if metricsHandler != nil {
		api.router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/settings", api.getSettingsAction).Methods("GET")
	api.apiRouter.HandleFunc("/settings", api.putSettingsAction).Methods("PUT")

	api.apiRouter.HandleFunc("/screen/{screen}",
		func(w http.ResponseWriter, r *http.Request) {
			screenId, err := model.ParseScreenId(mux.Vars(r)["screen"])
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
				return
			}
			if screenId.IsTransient() {
				GlobalErrorAction(w, fmt.Sprintf("screen %s can not be activated", screenId), http.StatusBadRequest)
				return
			}
			api.submitter.Submit(command.ActivateScreen{Screen: screenId})
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/power/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			on, ok := parseSwitch(mux.Vars(r)["state"])
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.submitter.Submit(command.SetPower{On: on})
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/autopower/{mode}",
		func(w http.ResponseWriter, r *http.Request) {
			mode, err := model.ParseAutoPowerMode(mux.Vars(r)["mode"])
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
				return
			}
			api.submitter.Submit(command.SetAutoPower{Mode: mode})
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/message",
		func(w http.ResponseWriter, r *http.Request) {
			var message apimodel.TextMessage
			if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			api.submitter.Submit(command.SetCustomMessage{Origin: command.NewOrigin(command.WEB_SOURCE), Text: message.Text})
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("PUT")

	api.apiRouter.HandleFunc("/notification",
		func(w http.ResponseWriter, r *http.Request) {
			var notification apimodel.Notification
			if err := json.NewDecoder(r.Body).Decode(&notification); err != nil || notification.Text == "" {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			api.submitter.Submit(command.ShowMessage{Text: notification.Text, Duration: time.Duration(notification.Duration) * time.Second})
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	// Administrative routes
	api.apiRouter.HandleFunc("/reboot",
		func(w http.ResponseWriter, r *http.Request) {
			origin := command.NewOrigin(command.WEB_SOURCE)
			// The answer would be lost with the reboot
			api.adminAction(w, r, command.Reboot{Origin: origin}, origin, command.REBOOT_ACTION, false)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/reset",
		func(w http.ResponseWriter, r *http.Request) {
			origin := command.NewOrigin(command.WEB_SOURCE)
			api.adminAction(w, r, command.FactoryReset{Origin: origin}, origin, command.FACTORY_RESET_ACTION, true)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/wifi",
		func(w http.ResponseWriter, r *http.Request) {
			var credentials apimodel.WifiCredentials
			if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil || credentials.Ssid == "" {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			origin := command.NewOrigin(command.WEB_SOURCE)
			// The client is usually connected through the hotspot, which goes down while joining
			api.adminAction(w, r, command.JoinWifi{Origin: origin, Ssid: credentials.Ssid, Password: credentials.Password}, origin, command.JOIN_WIFI_ACTION, false)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/hotspot/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			enabled, ok := parseSwitch(mux.Vars(r)["state"])
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			origin := command.NewOrigin(command.WEB_SOURCE)
			api.adminAction(w, r, command.SetHotspot{Origin: origin, Enabled: enabled}, origin, command.HOTSPOT_ACTION, true)
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Api-Key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      api.Handler(headersOk, originsOk, methodsOk),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

// Handler returns the complete http handler, compression and CORS included
func (d *Api) Handler(corsOptions ...handlers.CORSOption) http.Handler {
	return handlers.CompressHandler(handlers.CORS(corsOptions...)(d.router))
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.config.GetCompleteCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.config.GetCompleteKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.config.GetCompleteKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			"Vekiscore Server",
			d.config.GetCompleteKeyFilename(),
			d.config.GetCompleteCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.config.GetCompleteCertFilename(), d.config.GetCompleteKeyFilename())
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	d.server.Shutdown(context.Background())
}

// Deliver hands an administrative result to the waiting request, if still waiting
func (d *Api) Deliver(result command.AdminResult) {
	d.lock.Lock()
	defer d.lock.Unlock()

	resultChannel, ok := d.pending[result.Origin.RequestId]
	if !ok {
		logrus.Debugf("No request waiting for %s result %s", result.Action, result.Origin)
		return
	}
	delete(d.pending, result.Origin.RequestId)
	resultChannel <- result
}

func (d *Api) adminAction(w http.ResponseWriter, r *http.Request, cmd command.Command, origin command.Origin, action command.AdminAction, wait bool) {
	response := apimodel.AdminResponse{RequestId: origin.RequestId.String(), Action: string(action)}
	if !wait {
		d.submitter.Submit(cmd)
		writeJson(w, http.StatusAccepted, response)
		return
	}

	resultChannel := make(chan command.AdminResult, 1)
	d.lock.Lock()
	d.pending[origin.RequestId] = resultChannel
	d.lock.Unlock()
	d.submitter.Submit(cmd)

	timer := time.NewTimer(d.adminTimeout)
	defer timer.Stop()
	select {
	case result := <-resultChannel:
		response.Done = true
		if result.Err != nil {
			response.Error = result.Err.Error()
			writeJson(w, http.StatusInternalServerError, response)
			return
		}
		writeJson(w, http.StatusOK, response)
	case <-timer.C:
		d.forget(origin)
		apimodel.AdminTimeoutErrorMessage.SendError(w)
	case <-r.Context().Done():
		d.forget(origin)
	}
}

func (d *Api) forget(origin command.Origin) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.pending, origin.RequestId)
}

func (d *Api) getSettingsAction(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, d.settings.Settings())
}

// putSettingsAction applies the given fields over the current settings
func (d *Api) putSettingsAction(w http.ResponseWriter, r *http.Request) {
	settings := d.settings.Settings().Clone()
	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		apimodel.WrongParametersErrorMessage.SendError(w)
		return
	}
	if err := validateSettings(settings); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
		return
	}
	d.submitter.Submit(command.UpdateSettings{Origin: command.NewOrigin(command.WEB_SOURCE), Settings: settings})
	writeJson(w, http.StatusAccepted, settings)
}

func validateSettings(settings *model.ScoreboardSettings) error {
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", settings.Timezone)
	}
	screenId, err := model.ParseScreenId(string(settings.ActiveScreen))
	if err != nil {
		return err
	}
	if screenId.IsMeta() || screenId.IsTransient() {
		return fmt.Errorf("screen %s can not be the active screen", screenId)
	}
	for _, mode := range []model.AutoPowerMode{settings.AutoPower, settings.PreferredAutoPower} {
		if _, err := model.ParseAutoPowerMode(string(mode)); err != nil {
			return err
		}
	}
	if _, err := model.ParseSetupState(string(settings.SetupState)); err != nil {
		return err
	}
	if settings.RotationInterval < 0 {
		return fmt.Errorf("invalid rotation interval %d", settings.RotationInterval)
	}
	return nil
}

func parseSwitch(state string) (bool, bool) {
	switch state {
	case "on":
		return true, true
	case "off":
		return false, true
	}
	return false, false
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}
	errorMessage.SendError(w)
}
