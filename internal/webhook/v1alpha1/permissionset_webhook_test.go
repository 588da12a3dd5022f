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

package v1alpha1

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

var _ = Describe("PermissionSet Webhook", func() {
	var (
		obj       *authzv1alpha1.PermissionSet
		validator PermissionSetCustomValidator
	)

	BeforeEach(func() {
		obj = &authzv1alpha1.PermissionSet{
			ObjectMeta: metav1.ObjectMeta{Name: "pod-reader", Namespace: "default"},
			Spec: authzv1alpha1.PermissionSetSpec{Rules: []authzv1alpha1.Rule{{
				APIGroups: []string{""},
				Resources: []string{"pods"},
				Verbs:     []string{"get", "list"},
			}}},
		}
		validator = PermissionSetCustomValidator{}
	})

	Context("When creating or updating PermissionSet under Validating Webhook", func() {
		It("Should admit a set with well-formed rules", func() {
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(warnings).To(BeNil())
			Expect(err).To(BeNil())
		})

		It("Should deny a set without rules", func() {
			obj.Spec.Rules = nil
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError("at least one rule is required"))
		})

		It("Should deny a rule with empty verbs", func() {
			obj.Spec.Rules[0].Verbs = nil
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("verbs must not be empty")))
		})

		It("Should deny a rule with empty apiGroups", func() {
			obj.Spec.Rules[0].APIGroups = nil
			_, err := validator.ValidateUpdate(ctx, obj.DeepCopy(), obj)
			Expect(err).To(MatchError(ContainSubstring("apiGroups must not be empty")))
		})
	})
})

var _ = Describe("ClusterPermissionSet Webhook", func() {
	var validator ClusterPermissionSetCustomValidator

	It("Should apply the same rule checks to the cluster-scoped kind", func() {
		obj := &authzv1alpha1.ClusterPermissionSet{
			ObjectMeta: metav1.ObjectMeta{Name: "broken"},
			Spec: authzv1alpha1.ClusterPermissionSetSpec{Rules: []authzv1alpha1.Rule{{
				APIGroups: []string{""},
				Verbs:     []string{"get"},
			}}},
		}
		_, err := validator.ValidateCreate(ctx, obj)
		Expect(err).To(MatchError(ContainSubstring("resources must not be empty")))
	})
})
