/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	ctrlwebhook "sigs.k8s.io/controller-runtime/pkg/webhook"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/alerts"
	"antware.xyz/authgate/internal/audit"
	"antware.xyz/authgate/internal/authorizer"
	"antware.xyz/authgate/internal/controller"
	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/metrics"
	"antware.xyz/authgate/internal/store"
	webhookv1alpha1 "antware.xyz/authgate/internal/webhook/v1alpha1"
	// +kubebuilder:scaffold:imports
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")

	Version string
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(authzv1alpha1.AddToScheme(scheme))
	// +kubebuilder:scaffold:scheme
}

func main() {
	var metricsAddr string
	var probeAddr string
	var authorizeAddr string
	var auditPath string
	var oidcIssuer string
	var oidcClientID string
	var alertSMTPAddr string
	var alertSender string
	var alertRecipients string
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8443", "The address the metrics endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.StringVar(&authorizeAddr, "authorize-bind-address", ":8089", "The address the authorization query endpoint binds to.")
	flag.StringVar(&auditPath, "audit-log-path", "", "File to append audit records to. Empty writes to stdout.")
	flag.StringVar(&oidcIssuer, "oidc-issuer", "", "OIDC issuer for query-endpoint bearer tokens. Empty disables verification.")
	flag.StringVar(&oidcClientID, "oidc-client-id", "", "OIDC client id for query-endpoint bearer tokens.")
	flag.StringVar(&alertSMTPAddr, "alert-smtp-addr", "", "SMTP host:port to deliver operational alerts to. Empty disables alert delivery.")
	flag.StringVar(&alertSender, "alert-sender", "", "Sender address for operational alert mail.")
	flag.StringVar(&alertRecipients, "alert-recipients", "", "Comma-separated recipient addresses for operational alert mail.")
	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if Version == "" {
		Version = "development"
	}
	metrics.RegisterMetrics(Version)

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		WebhookServer:          ctrlwebhook.NewServer(ctrlwebhook.Options{Port: 9443}),
		HealthProbeBindAddress: probeAddr,
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	eng := engine.New()
	st := store.New(eng)

	if err := (&controller.PermissionSetReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Store:  st,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "PermissionSet")
		os.Exit(1)
	}
	if err := (&controller.ClusterPermissionSetReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Store:  st,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "ClusterPermissionSet")
		os.Exit(1)
	}
	if err := (&controller.PermissionBindingReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Store:  st,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "PermissionBinding")
		os.Exit(1)
	}
	if err := (&controller.ClusterPermissionBindingReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Store:  st,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "ClusterPermissionBinding")
		os.Exit(1)
	}

	if os.Getenv("ENABLE_WEBHOOKS") != "false" {
		if err := webhookv1alpha1.SetupPermissionSetWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "PermissionSet")
			os.Exit(1)
		}
		if err := webhookv1alpha1.SetupPermissionBindingWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "PermissionBinding")
			os.Exit(1)
		}
		if err := webhookv1alpha1.SetupClusterPermissionBindingWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "ClusterPermissionBinding")
			os.Exit(1)
		}
	}
	// +kubebuilder:scaffold:builder

	auditOut := os.Stdout
	if auditPath != "" {
		auditOut, err = os.OpenFile(auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			setupLog.Error(err, "unable to open audit log", "path", auditPath)
			os.Exit(1)
		}
	}
	auditLog := audit.NewLog(audit.NewJSONSink(auditOut), 1024)
	defer auditLog.Close()

	alertMgr := alerts.NewManager(alerts.NewRouter("default", nil))
	if alertSMTPAddr != "" {
		alertMgr.Update("default", alerts.NewEmailNotifier(
			alertSMTPAddr, alertSender, strings.Split(alertRecipients, ",")))
	}

	querySrv := authorizer.NewServer(eng, auditLog, alertMgr, authorizer.ServerConfig{
		OIDCIssuer:   oidcIssuer,
		OIDCClientID: oidcClientID,
	})
	if err := mgr.Add(manager.RunnableFunc(func(ctx context.Context) error {
		go alertMgr.WatchAuditErrors(ctx, auditLog.Errors())

		server := &http.Server{Addr: authorizeAddr, Handler: querySrv.Handler()}
		go func() {
			<-ctx.Done()
			_ = server.Shutdown(context.Background())
		}()

		setupLog.Info("authorization query endpoint listening", "addr", authorizeAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})); err != nil {
		setupLog.Error(err, "unable to add authorization query endpoint")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
